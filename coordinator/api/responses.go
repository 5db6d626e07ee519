package api

import (
	"fmt"
	"net/http"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*nodeResponse)(nil)
	_ supermq.Response = (*listNodesResponse)(nil)
	_ supermq.Response = (*activeNodesResponse)(nil)
	_ supermq.Response = (*contributionResponse)(nil)
	_ supermq.Response = (*listContributionsResponse)(nil)
	_ supermq.Response = (*aggregationResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
	_ supermq.Response = (*statusResponse)(nil)
)

type nodeResponse struct {
	fl.Node
	created bool
}

func (res nodeResponse) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res nodeResponse) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": "/nodes/" + res.ID,
		}
	}

	return map[string]string{}
}

func (res nodeResponse) Empty() bool {
	return false
}

type listNodesResponse struct {
	coordinator.NodePage
}

func (res listNodesResponse) Code() int {
	return http.StatusOK
}

func (res listNodesResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listNodesResponse) Empty() bool {
	return false
}

type activeNodesResponse struct {
	Round uint64    `json:"round"`
	Total int       `json:"total"`
	Nodes []fl.Node `json:"nodes"`
}

func (res activeNodesResponse) Code() int {
	return http.StatusOK
}

func (res activeNodesResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res activeNodesResponse) Empty() bool {
	return false
}

// contributionResponse acknowledges an accepted submission. It is applied
// when the round closes, hence 202.
type contributionResponse struct {
	fl.ContributionRecord
}

func (res contributionResponse) Code() int {
	return http.StatusAccepted
}

func (res contributionResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res contributionResponse) Empty() bool {
	return false
}

type listContributionsResponse struct {
	coordinator.ContributionPage
}

func (res listContributionsResponse) Code() int {
	return http.StatusOK
}

func (res listContributionsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listContributionsResponse) Empty() bool {
	return false
}

type aggregationResponse struct {
	coordinator.AggregationResult
}

func (res aggregationResponse) Code() int {
	return http.StatusCreated
}

func (res aggregationResponse) Headers() map[string]string {
	return map[string]string{
		"Location": fmt.Sprintf("/rounds/%d", res.Model.Round),
	}
}

func (res aggregationResponse) Empty() bool {
	return false
}

type modelResponse struct {
	fl.GlobalModel
}

func (res modelResponse) Code() int {
	return http.StatusOK
}

func (res modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res modelResponse) Empty() bool {
	return false
}

type statusResponse struct {
	coordinator.Status
}

func (res statusResponse) Code() int {
	return http.StatusOK
}

func (res statusResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res statusResponse) Empty() bool {
	return false
}
