package api

import (
	"context"
	"errors"

	"github.com/absmach/fedcoord/coordinator"
	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func registerNodeEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(registerNodeReq)
		if !ok {
			return nodeResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nodeResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		node, err := svc.RegisterNode(ctx, req.ID, req.Weights)
		if err != nil {
			return nodeResponse{}, err
		}

		return nodeResponse{
			Node:    node,
			created: true,
		}, nil
	}
}

func updateNodeEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateNodeReq)
		if !ok {
			return contributionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return contributionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		rec, err := svc.UpdateNode(ctx, req.nodeID, req.Weights, req.DataSize, req.Accuracy)
		if err != nil {
			return contributionResponse{}, err
		}

		return contributionResponse{
			ContributionRecord: rec,
		}, nil
	}
}

func getNodeEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return nodeResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nodeResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		node, err := svc.GetNode(ctx, req.id)
		if err != nil {
			return nodeResponse{}, err
		}

		return nodeResponse{
			Node: node,
		}, nil
	}
}

func listNodesEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listNodesResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listNodesResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListNodes(ctx, req.offset, req.limit)
		if err != nil {
			return listNodesResponse{}, err
		}

		return listNodesResponse{
			NodePage: page,
		}, nil
	}
}

func activeNodesEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return activeNodesResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		nodes := svc.GetActiveNodes(ctx)

		return activeNodesResponse{
			Round: svc.GetCurrentRound(ctx),
			Total: len(nodes),
			Nodes: nodes,
		}, nil
	}
}

func listContributionsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listContributionsReq)
		if !ok {
			return listContributionsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listContributionsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListContributions(ctx, req.id, req.offset, req.limit)
		if err != nil {
			return listContributionsResponse{}, err
		}

		return listContributionsResponse{
			ContributionPage: page,
		}, nil
	}
}

func triggerAggregationEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return aggregationResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		res, err := svc.TriggerAggregation(ctx)
		if err != nil {
			return aggregationResponse{}, err
		}

		return aggregationResponse{
			AggregationResult: res,
		}, nil
	}
}

func getRoundModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		model, err := svc.GetRoundModel(ctx, req.round)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{
			GlobalModel: model,
		}, nil
	}
}

func getGlobalModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		return modelResponse{
			GlobalModel: svc.GetGlobalModel(ctx),
		}, nil
	}
}

func getBestModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return modelResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		return modelResponse{
			GlobalModel: svc.GetBestOrGlobalModel(ctx),
		}, nil
	}
}

func getStatusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(emptyReq); !ok {
			return statusResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		return statusResponse{
			Status: svc.GetStatus(ctx),
		}, nil
	}
}
