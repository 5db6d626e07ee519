package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	roundsEndpoint = "/rounds"
	modelEndpoint  = "/model"
	statusEndpoint = "/status"
)

type GlobalModel struct {
	Weights       []float64 `json:"weights"`
	Round         uint64    `json:"round"`
	Accuracy      float64   `json:"accuracy"`
	Participants  int       `json:"participants"`
	TotalDataSize int64     `json:"total_data_size"`
	Algorithm     string    `json:"algorithm,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type AggregationResult struct {
	Model         GlobalModel    `json:"model"`
	Contributions []Contribution `json:"contributions"`
}

type Status struct {
	Round              uint64  `json:"round"`
	GlobalAccuracy     float64 `json:"global_accuracy"`
	Dimension          int     `json:"dimension"`
	RegisteredNodes    int     `json:"registered_nodes"`
	ActiveNodes        []Node  `json:"active_nodes"`
	PendingSubmissions int     `json:"pending_submissions"`
	Algorithm          string  `json:"algorithm"`
	BestRound          uint64  `json:"best_round"`
	BestAccuracy       float64 `json:"best_accuracy"`
}

func (sdk *coordSDK) Aggregate() (AggregationResult, error) {
	url := sdk.coordinatorURL + roundsEndpoint + "/aggregate"

	body, err := sdk.processRequest(http.MethodPost, url, nil, http.StatusCreated)
	if err != nil {
		return AggregationResult{}, err
	}

	var res AggregationResult
	if err := json.Unmarshal(body, &res); err != nil {
		return AggregationResult{}, err
	}

	return res, nil
}

func (sdk *coordSDK) RoundModel(round uint64) (GlobalModel, error) {
	return sdk.model(fmt.Sprintf("%s%s/%d", sdk.coordinatorURL, roundsEndpoint, round))
}

func (sdk *coordSDK) GlobalModel() (GlobalModel, error) {
	return sdk.model(sdk.coordinatorURL + modelEndpoint)
}

func (sdk *coordSDK) BestModel() (GlobalModel, error) {
	return sdk.model(sdk.coordinatorURL + modelEndpoint + "/best")
}

func (sdk *coordSDK) model(url string) (GlobalModel, error) {
	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return GlobalModel{}, err
	}

	var m GlobalModel
	if err := json.Unmarshal(body, &m); err != nil {
		return GlobalModel{}, err
	}

	return m, nil
}

func (sdk *coordSDK) Status() (Status, error) {
	url := sdk.coordinatorURL + statusEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Status{}, err
	}

	var st Status
	if err := json.Unmarshal(body, &st); err != nil {
		return Status{}, err
	}

	return st, nil
}
