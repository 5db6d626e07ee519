package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/coordinator/api"
	"github.com/absmach/fedcoord/coordinator/mocks"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	contentType = "application/json"
	instanceID  = "5de9b29a-feb9-11ed-be56-0242ac120002"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type testRequest struct {
	client      *http.Client
	method      string
	url         string
	contentType string
	body        io.Reader
}

func (tr testRequest) make() (*http.Response, error) {
	req, err := http.NewRequest(tr.method, tr.url, tr.body)
	if err != nil {
		return nil, err
	}
	if tr.contentType != "" {
		req.Header.Set("Content-Type", tr.contentType)
	}

	return tr.client.Do(req)
}

func newServer(t *testing.T) (*httptest.Server, coordinator.Service) {
	t.Helper()
	svc, err := coordinator.NewService(coordinator.Config{}, nil, nil, nil, logger)
	require.Nil(t, err)
	ts := httptest.NewServer(api.MakeHandler(svc, logger, instanceID))
	t.Cleanup(ts.Close)

	return ts, svc
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.Nil(t, err)

	return string(data)
}

func TestRegisterNode(t *testing.T) {
	ts, _ := newServer(t)

	cases := []struct {
		desc        string
		body        string
		contentType string
		status      int
	}{
		{
			desc:        "register node",
			body:        toJSON(t, map[string]any{"id": "node-1", "weights": []float64{1, 2}}),
			contentType: contentType,
			status:      http.StatusCreated,
		},
		{
			desc:        "register node with different dimension",
			body:        toJSON(t, map[string]any{"id": "node-1", "weights": []float64{1, 2, 3}}),
			contentType: contentType,
			status:      http.StatusConflict,
		},
		{
			desc:        "register node with model dimension mismatch",
			body:        toJSON(t, map[string]any{"id": "node-2", "weights": []float64{1}}),
			contentType: contentType,
			status:      http.StatusBadRequest,
		},
		{
			desc:        "register node without id",
			body:        toJSON(t, map[string]any{"weights": []float64{1, 2}}),
			contentType: contentType,
			status:      http.StatusBadRequest,
		},
		{
			desc:        "register node without weights",
			body:        toJSON(t, map[string]any{"id": "node-3"}),
			contentType: contentType,
			status:      http.StatusBadRequest,
		},
		{
			desc:        "register node with malformed body",
			body:        "{",
			contentType: contentType,
			status:      http.StatusBadRequest,
		},
		{
			desc:        "register node with invalid content type",
			body:        toJSON(t, map[string]any{"id": "node-4", "weights": []float64{1, 2}}),
			contentType: "text/plain",
			status:      http.StatusUnsupportedMediaType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req := testRequest{
				client:      ts.Client(),
				method:      http.MethodPost,
				url:         ts.URL + "/nodes",
				contentType: tc.contentType,
				body:        strings.NewReader(tc.body),
			}
			res, err := req.make()
			require.Nil(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode, tc.desc)
			if tc.status == http.StatusCreated {
				assert.Equal(t, "/nodes/node-1", res.Header.Get("Location"))
			}
		})
	}
}

func TestUpdateNodeAndAggregate(t *testing.T) {
	ts, svc := newServer(t)
	ctx := context.Background()

	_, err := svc.RegisterNode(ctx, "a", fl.Vector{1, 2, 3})
	require.Nil(t, err)
	_, err = svc.RegisterNode(ctx, "b", fl.Vector{5, 6, 7})
	require.Nil(t, err)

	cborBody, err := cbor.Marshal(map[string]any{
		"weights":   []float64{5, 6, 7},
		"data_size": 300,
		"accuracy":  0.8,
	})
	require.Nil(t, err)

	cases := []struct {
		desc        string
		nodeID      string
		contentType string
		body        io.Reader
		status      int
	}{
		{
			desc:        "json update",
			nodeID:      "a",
			contentType: contentType,
			body:        strings.NewReader(toJSON(t, map[string]any{"weights": []float64{1, 2, 3}, "data_size": 100, "accuracy": 0.8})),
			status:      http.StatusAccepted,
		},
		{
			desc:        "cbor update",
			nodeID:      "b",
			contentType: "application/cbor",
			body:        bytes.NewReader(cborBody),
			status:      http.StatusAccepted,
		},
		{
			desc:        "unknown node",
			nodeID:      "ghost",
			contentType: contentType,
			body:        strings.NewReader(toJSON(t, map[string]any{"weights": []float64{1, 2, 3}, "data_size": 100, "accuracy": 0.8})),
			status:      http.StatusNotFound,
		},
		{
			desc:        "invalid accuracy",
			nodeID:      "a",
			contentType: contentType,
			body:        strings.NewReader(toJSON(t, map[string]any{"weights": []float64{9, 9, 9}, "data_size": 100, "accuracy": 2})),
			status:      http.StatusBadRequest,
		},
		{
			desc:        "dimension mismatch",
			nodeID:      "a",
			contentType: contentType,
			body:        strings.NewReader(toJSON(t, map[string]any{"weights": []float64{9}, "data_size": 100, "accuracy": 0.5})),
			status:      http.StatusBadRequest,
		},
		{
			desc:        "malformed cbor",
			nodeID:      "a",
			contentType: "application/cbor",
			body:        bytes.NewReader([]byte{0xff, 0x00}),
			status:      http.StatusBadRequest,
		},
		{
			desc:        "unsupported content type",
			nodeID:      "a",
			contentType: "text/plain",
			body:        strings.NewReader("weights"),
			status:      http.StatusUnsupportedMediaType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req := testRequest{
				client:      ts.Client(),
				method:      http.MethodPost,
				url:         fmt.Sprintf("%s/nodes/%s/updates", ts.URL, tc.nodeID),
				contentType: tc.contentType,
				body:        tc.body,
			}
			res, err := req.make()
			require.Nil(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode, tc.desc)
		})
	}

	aggregate := testRequest{client: ts.Client(), method: http.MethodPost, url: ts.URL + "/rounds/aggregate"}
	res, err := aggregate.make()
	require.Nil(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "/rounds/1", res.Header.Get("Location"))

	var result coordinator.AggregationResult
	require.Nil(t, json.NewDecoder(res.Body).Decode(&result))
	assert.True(t, fl.Vector{4, 5, 6}.Equal(result.Model.Weights, 1e-12), fmt.Sprintf("unexpected weights %v", result.Model.Weights))
	assert.InDelta(t, 0.8, result.Model.Accuracy, 1e-12)
	assert.Len(t, result.Contributions, 2)

	res, err = aggregate.make()
	require.Nil(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestReadEndpoints(t *testing.T) {
	ts, svc := newServer(t)
	ctx := context.Background()

	_, err := svc.RegisterNode(ctx, "node-1", fl.Vector{1, 1})
	require.Nil(t, err)
	_, err = svc.TriggerAggregation(ctx)
	require.Nil(t, err)

	cases := []struct {
		desc   string
		url    string
		status int
	}{
		{desc: "get status", url: "/status", status: http.StatusOK},
		{desc: "get global model", url: "/model", status: http.StatusOK},
		{desc: "get best model", url: "/model/best", status: http.StatusOK},
		{desc: "get current round model", url: "/rounds/1", status: http.StatusOK},
		{desc: "get future round model", url: "/rounds/7", status: http.StatusNotFound},
		{desc: "get round with invalid number", url: "/rounds/first", status: http.StatusBadRequest},
		{desc: "list nodes", url: "/nodes?offset=0&limit=10", status: http.StatusOK},
		{desc: "list nodes with limit too large", url: "/nodes?limit=1000", status: http.StatusBadRequest},
		{desc: "list nodes with invalid offset", url: "/nodes?offset=abc", status: http.StatusBadRequest},
		{desc: "get active nodes", url: "/nodes/active", status: http.StatusOK},
		{desc: "get node", url: "/nodes/node-1", status: http.StatusOK},
		{desc: "get unknown node", url: "/nodes/ghost", status: http.StatusNotFound},
		{desc: "list contributions", url: "/nodes/node-1/contributions", status: http.StatusOK},
		{desc: "list contributions of unknown node", url: "/nodes/ghost/contributions", status: http.StatusNotFound},
		{desc: "health", url: "/health", status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + tc.url}
			res, err := req.make()
			require.Nil(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode, tc.desc)
		})
	}

	req := testRequest{client: ts.Client(), method: http.MethodGet, url: ts.URL + "/status"}
	res, err := req.make()
	require.Nil(t, err)
	defer res.Body.Close()

	var status coordinator.Status
	require.Nil(t, json.NewDecoder(res.Body).Decode(&status))
	assert.Equal(t, uint64(1), status.Round)
	assert.Equal(t, 1, status.RegisteredNodes)
	assert.Equal(t, 2, status.Dimension)
	assert.Len(t, status.ActiveNodes, 1)
}

func TestUnexpectedServiceError(t *testing.T) {
	svc := new(mocks.MockService)
	svc.On("TriggerAggregation", mock.Anything).Return(coordinator.AggregationResult{}, fmt.Errorf("storage exploded"))
	ts := httptest.NewServer(api.MakeHandler(svc, logger, instanceID))
	defer ts.Close()

	req := testRequest{client: ts.Client(), method: http.MethodPost, url: ts.URL + "/rounds/aggregate"}
	res, err := req.make()
	require.Nil(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

	var body map[string]string
	require.Nil(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, body["error"], "storage exploded")
	svc.AssertExpectations(t)
}
