package api

import (
	"errors"
	"fmt"

	"github.com/absmach/fedcoord/pkg/api"
	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/fedcoord/pkg/fl"
	apiutil "github.com/absmach/supermq/api/http/util"
)

var errLimitSize = errors.New("invalid limit size")

type registerNodeReq struct {
	ID      string    `json:"id"`
	Weights fl.Vector `json:"weights"`
}

func (req *registerNodeReq) validate() error {
	if req.ID == "" {
		return apiutil.ErrMissingID
	}
	if len(req.Weights) == 0 {
		return fmt.Errorf("%w: weights are required", pkgerrors.ErrInvalidWeights)
	}

	return nil
}

// updateNodeReq is decoded from either JSON or CBOR; the CBOR decoder falls
// back to the json tags.
type updateNodeReq struct {
	nodeID   string
	Weights  fl.Vector `json:"weights"`
	DataSize int64     `json:"data_size"`
	Accuracy float64   `json:"accuracy"`
}

func (req *updateNodeReq) validate() error {
	if req.nodeID == "" {
		return apiutil.ErrMissingID
	}
	if len(req.Weights) == 0 {
		return fmt.Errorf("%w: weights are required", pkgerrors.ErrInvalidWeights)
	}

	return nil
}

type entityReq struct {
	id string
}

func (req *entityReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (req *listEntityReq) validate() error {
	if req.limit > api.MaxLimitSize {
		return errLimitSize
	}

	return nil
}

type listContributionsReq struct {
	id            string
	offset, limit uint64
}

func (req *listContributionsReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}
	if req.limit > api.MaxLimitSize {
		return errLimitSize
	}

	return nil
}

type roundReq struct {
	round uint64
}

type emptyReq struct{}
