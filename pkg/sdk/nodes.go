package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const nodesEndpoint = "/nodes"

type Node struct {
	ID                     string    `json:"id"`
	Weights                []float64 `json:"weights,omitempty"`
	DataSize               int64     `json:"data_size"`
	Accuracy               float64   `json:"accuracy"`
	LastSubmittedRound     uint64    `json:"last_submitted_round"`
	CumulativeContribution float64   `json:"cumulative_contribution"`
	Active                 bool      `json:"active"`
	RegisteredAt           time.Time `json:"registered_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type NodePage struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
	Nodes  []Node `json:"nodes"`
}

type ActiveNodes struct {
	Round uint64 `json:"round"`
	Total int    `json:"total"`
	Nodes []Node `json:"nodes"`
}

// Update is a node's local training result for the current round.
type Update struct {
	Weights  []float64 `json:"weights"`
	DataSize int64     `json:"data_size"`
	Accuracy float64   `json:"accuracy"`
}

type Contribution struct {
	NodeID string  `json:"node_id"`
	Round  uint64  `json:"round"`
	Score  float64 `json:"score"`
}

type ContributionPage struct {
	Offset        uint64         `json:"offset"`
	Limit         uint64         `json:"limit"`
	Total         uint64         `json:"total"`
	NodeID        string         `json:"node_id"`
	Contributions []Contribution `json:"contributions"`
}

func (sdk *coordSDK) RegisterNode(id string, weights []float64) (Node, error) {
	data, err := json.Marshal(struct {
		ID      string    `json:"id"`
		Weights []float64 `json:"weights"`
	}{id, weights})
	if err != nil {
		return Node{}, err
	}

	url := sdk.coordinatorURL + nodesEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Node{}, err
	}

	var n Node
	if err := json.Unmarshal(body, &n); err != nil {
		return Node{}, err
	}

	return n, nil
}

func (sdk *coordSDK) GetNode(id string) (Node, error) {
	url := sdk.coordinatorURL + nodesEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Node{}, err
	}

	var n Node
	if err := json.Unmarshal(body, &n); err != nil {
		return Node{}, err
	}

	return n, nil
}

func (sdk *coordSDK) ListNodes(offset, limit uint64) (NodePage, error) {
	url := sdk.coordinatorURL + nodesEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return NodePage{}, err
	}

	var page NodePage
	if err := json.Unmarshal(body, &page); err != nil {
		return NodePage{}, err
	}

	return page, nil
}

func (sdk *coordSDK) ActiveNodes() (ActiveNodes, error) {
	url := sdk.coordinatorURL + nodesEndpoint + "/active"

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ActiveNodes{}, err
	}

	var active ActiveNodes
	if err := json.Unmarshal(body, &active); err != nil {
		return ActiveNodes{}, err
	}

	return active, nil
}

func (sdk *coordSDK) SubmitUpdate(nodeID string, update Update) (Contribution, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return Contribution{}, err
	}

	return sdk.submit(nodeID, CTJSON, data)
}

func (sdk *coordSDK) SubmitUpdateCBOR(nodeID string, update Update) (Contribution, error) {
	data, err := cbor.Marshal(update)
	if err != nil {
		return Contribution{}, err
	}

	return sdk.submit(nodeID, CTCBOR, data)
}

func (sdk *coordSDK) submit(nodeID, contentType string, data []byte) (Contribution, error) {
	url := fmt.Sprintf("%s%s/%s/updates", sdk.coordinatorURL, nodesEndpoint, nodeID)

	body, err := sdk.processRequestWithContentType(http.MethodPost, url, contentType, data, http.StatusAccepted)
	if err != nil {
		return Contribution{}, err
	}

	var c Contribution
	if err := json.Unmarshal(body, &c); err != nil {
		return Contribution{}, err
	}

	return c, nil
}

func (sdk *coordSDK) Contributions(nodeID string, offset, limit uint64) (ContributionPage, error) {
	url := fmt.Sprintf("%s%s/%s/contributions%s", sdk.coordinatorURL, nodesEndpoint, nodeID, pageQuery(offset, limit))

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ContributionPage{}, err
	}

	var page ContributionPage
	if err := json.Unmarshal(body, &page); err != nil {
		return ContributionPage{}, err
	}

	return page, nil
}
