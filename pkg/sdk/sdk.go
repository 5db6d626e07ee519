package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	CTJSON string = "application/json"
	CTCBOR string = "application/cbor"
)

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// RegisterNode registers a training node with its initial weights.
	//
	// example:
	//  node, _ := sdk.RegisterNode("node-1", []float64{0.1, 0.2, 0.3})
	//  fmt.Println(node)
	RegisterNode(id string, weights []float64) (Node, error)

	// GetNode gets a node by id.
	//
	// example:
	//  node, _ := sdk.GetNode("node-1")
	//  fmt.Println(node)
	GetNode(id string) (Node, error)

	// ListNodes lists registered nodes.
	//
	// example:
	//  page, _ := sdk.ListNodes(0, 10)
	//  fmt.Println(page)
	ListNodes(offset, limit uint64) (NodePage, error)

	// ActiveNodes lists the nodes that submitted within the activity window.
	//
	// example:
	//  active, _ := sdk.ActiveNodes()
	//  fmt.Println(active)
	ActiveNodes() (ActiveNodes, error)

	// SubmitUpdate submits a local training result as JSON.
	//
	// example:
	//  update := sdk.Update{
	//    Weights:  []float64{0.1, 0.2, 0.3},
	//    DataSize: 1000,
	//    Accuracy: 0.82,
	//  }
	//  contribution, _ := sdk.SubmitUpdate("node-1", update)
	//  fmt.Println(contribution)
	SubmitUpdate(nodeID string, update Update) (Contribution, error)

	// SubmitUpdateCBOR submits a local training result encoded as CBOR,
	// which is considerably smaller for large weight vectors.
	SubmitUpdateCBOR(nodeID string, update Update) (Contribution, error)

	// Contributions lists the contribution history of a node.
	//
	// example:
	//  page, _ := sdk.Contributions("node-1", 0, 10)
	//  fmt.Println(page)
	Contributions(nodeID string, offset, limit uint64) (ContributionPage, error)

	// Aggregate closes the current round.
	//
	// example:
	//  result, _ := sdk.Aggregate()
	//  fmt.Println(result.Model.Round)
	Aggregate() (AggregationResult, error)

	// RoundModel gets the global model of a round.
	//
	// example:
	//  model, _ := sdk.RoundModel(3)
	//  fmt.Println(model)
	RoundModel(round uint64) (GlobalModel, error)

	// GlobalModel gets the current global model.
	GlobalModel() (GlobalModel, error)

	// BestModel gets the committed model with the highest accuracy, or the
	// current one when no round has been committed.
	BestModel() (GlobalModel, error)

	// Status gets the coordinator status.
	//
	// example:
	//  status, _ := sdk.Status()
	//  fmt.Println(status.Round, status.GlobalAccuracy)
	Status() (Status, error)
}

type coordSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &coordSDK{
		coordinatorURL: strings.TrimSuffix(cfg.CoordinatorURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

// Error is returned for responses with an unexpected status code.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response code: %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected response code: %d: %s", e.StatusCode, e.Message)
}

func (sdk *coordSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	return sdk.processRequestWithContentType(method, reqURL, CTJSON, data, expectedRespCode)
}

func (sdk *coordSDK) processRequestWithContentType(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", contentType)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var res struct {
			Err string `json:"error"`
		}
		_ = json.Unmarshal(body, &res)

		return []byte{}, &Error{StatusCode: resp.StatusCode, Message: res.Err}
	}

	return body, nil
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
