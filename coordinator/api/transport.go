package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/api"
	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodySize bounds submission bodies. Weight vectors can be large.
const maxBodySize = 1024 * 1024 * 64

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/nodes", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			registerNodeEndpoint(svc),
			decodeRegisterNodeReq,
			api.EncodeResponse,
			opts...,
		), "register-node").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listNodesEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-nodes").ServeHTTP)
		r.Get("/active", otelhttp.NewHandler(kithttp.NewServer(
			activeNodesEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-active-nodes").ServeHTTP)
		r.Route("/{nodeID}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getNodeEndpoint(svc),
				decodeEntityReq("nodeID"),
				api.EncodeResponse,
				opts...,
			), "get-node").ServeHTTP)
			r.Post("/updates", otelhttp.NewHandler(kithttp.NewServer(
				updateNodeEndpoint(svc),
				decodeUpdateNodeReq,
				api.EncodeResponse,
				opts...,
			), "update-node").ServeHTTP)
			r.Get("/contributions", otelhttp.NewHandler(kithttp.NewServer(
				listContributionsEndpoint(svc),
				decodeListContributionsReq,
				api.EncodeResponse,
				opts...,
			), "list-contributions").ServeHTTP)
		})
	})

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/aggregate", otelhttp.NewHandler(kithttp.NewServer(
			triggerAggregationEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "trigger-aggregation").ServeHTTP)
		r.Get("/{round}", otelhttp.NewHandler(kithttp.NewServer(
			getRoundModelEndpoint(svc),
			decodeRoundReq,
			api.EncodeResponse,
			opts...,
		), "get-round-model").ServeHTTP)
	})

	mux.Route("/model", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			getGlobalModelEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-global-model").ServeHTTP)
		r.Get("/best", otelhttp.NewHandler(kithttp.NewServer(
			getBestModelEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-best-model").ServeHTTP)
	})

	mux.Get("/status", otelhttp.NewHandler(kithttp.NewServer(
		getStatusEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-status").ServeHTTP)

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return emptyReq{}, nil
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeRegisterNodeReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req registerNodeReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

// decodeUpdateNodeReq accepts JSON and CBOR bodies.
func decodeUpdateNodeReq(_ context.Context, r *http.Request) (any, error) {
	req := updateNodeReq{nodeID: chi.URLParam(r, "nodeID")}
	body := io.LimitReader(r.Body, maxBodySize)

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, api.ContentType):
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	case strings.Contains(contentType, api.CBORContentType):
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
		if err := cbor.Unmarshal(data, &req); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	return req, nil
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeListContributionsReq(ctx context.Context, r *http.Request) (any, error) {
	page, err := decodeListEntityReq(ctx, r)
	if err != nil {
		return nil, err
	}
	req := page.(listEntityReq)

	return listContributionsReq{
		id:     chi.URLParam(r, "nodeID"),
		offset: req.offset,
		limit:  req.limit,
	}, nil
}

func decodeRoundReq(_ context.Context, r *http.Request) (any, error) {
	round, err := strconv.ParseUint(chi.URLParam(r, "round"), 10, 64)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData, err)
	}

	return roundReq{round: round}, nil
}
