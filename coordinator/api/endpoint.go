package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

func startRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(startRoundReq)
		if !ok {
			return startRoundRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return startRoundRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		info, err := svc.StartRound(ctx, req.Participants)
		if err != nil {
			return startRoundRes{}, err
		}

		return startRoundRes{RoundInfo: info}, nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listRoundsRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRoundsRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListRounds(ctx, req.offset, req.limit)
		if err != nil {
			return listRoundsRes{}, err
		}

		return listRoundsRes{Page: page}, nil
	}
}

func getRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return roundRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		r, err := svc.GetRound(ctx, req.number)
		if err != nil {
			return roundRes{}, err
		}

		return roundRes{Round: r}, nil
	}
}

func statusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		st, err := svc.Status(ctx)
		if err != nil {
			return statusRes{}, err
		}

		return statusRes{Status: st}, nil
	}
}

func aggregateEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(aggregateReq)
		if !ok {
			return aggregateRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return aggregateRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		info, err := svc.Aggregate(ctx, req.Snapshots, req.IncludeSelf)
		if err != nil {
			return aggregateRes{}, err
		}

		return aggregateRes{AggregateInfo: info}, nil
	}
}

func getWeightsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		s, err := svc.Weights(ctx)
		switch {
		case errors.Is(err, pkgerrors.ErrModelNotInitialized):
			return weightsRes(nil), nil
		case err != nil:
			return weightsRes(nil), err
		}

		return weightsRes(s), nil
	}
}

func updateWeightsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(weightsReq)
		if !ok {
			return updateWeightsRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return updateWeightsRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.SetWeights(ctx, req.Weights); err != nil {
			return updateWeightsRes{}, err
		}

		return updateWeightsRes{Layers: len(req.Weights)}, nil
	}
}

func initializeModelEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(modelReq)
		if !ok {
			return modelRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return modelRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		cfg, err := svc.InitializeModel(ctx, req.Config)
		if err != nil {
			return modelRes{}, err
		}

		return modelRes{Config: cfg, TaskKind: cfg.Kind()}, nil
	}
}

func setConfigEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(configReq)
		if !ok {
			return configRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return configRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		info, err := svc.SetConfig(ctx, req.ConfigPatch)
		if err != nil {
			return configRes{}, err
		}

		return configRes{ConfigInfo: info}, nil
	}
}

func uploadDataEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(dataReq)
		if !ok {
			return dataRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return dataRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		info, err := svc.UploadData(ctx, req.TrainingData)
		if err != nil {
			return dataRes{}, err
		}

		return dataRes{DataInfo: info}, nil
	}
}

func listPeersEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		list, err := svc.ListPeers(ctx)
		if err != nil {
			return listPeersRes{}, err
		}

		return listPeersRes{Total: uint64(len(list)), Peers: list}, nil
	}
}

func activityEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(activityReq)
		if !ok {
			return activityRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return activityRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		acts, err := svc.Activity(ctx, int(req.limit))
		if err != nil {
			return activityRes{}, err
		}

		return activityRes{Activities: acts}, nil
	}
}

func restoreCheckpointEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(checkpointReq)
		if !ok {
			return restoreRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return restoreRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.RestoreCheckpoint(ctx, req.tag); err != nil {
			return restoreRes{}, err
		}

		return restoreRes{Tag: req.tag}, nil
	}
}
