package api

import (
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/yahyaAbdulSattar/major-project/pkg/api"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var (
	errLimitSize       = errors.New("limit exceeds maximum page size")
	errMissingRound    = errors.New("missing round number")
	errMissingWeights  = errors.New("missing weights")
	errMissingFeatures = errors.New("missing features")
)

type startRoundReq struct {
	Participants []string `json:"participants"`
}

// Participants are checked by the coordinator so that an empty list maps
// onto the same error whichever surface the round is started from.
func (req *startRoundReq) validate() error {
	return nil
}

type roundReq struct {
	number uint64
}

func (req *roundReq) validate() error {
	if req.number == 0 {
		return errMissingRound
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

type activityReq struct {
	limit uint64
}

func (req *activityReq) validate() error {
	if req.limit > api.MaxLimitSize {
		return errLimitSize
	}

	return nil
}

type aggregateReq struct {
	Snapshots   []fl.Update `json:"snapshots"`
	IncludeSelf bool        `json:"include_self"`
}

func (req *aggregateReq) validate() error {
	for _, u := range req.Snapshots {
		if u.PeerID == "" {
			return apiutil.ErrMissingID
		}
	}

	return nil
}

type weightsReq struct {
	Weights tensor.Snapshot `json:"weights"`
}

func (req *weightsReq) validate() error {
	if len(req.Weights) == 0 {
		return errMissingWeights
	}
	for _, t := range req.Weights {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	return nil
}

type modelReq struct {
	model.Config `json:",inline"`
}

func (req *modelReq) validate() error {
	return req.Config.Validate()
}

type configReq struct {
	model.ConfigPatch `json:",inline"`
}

// The merged config is validated by the coordinator.
func (req *configReq) validate() error {
	return nil
}

type dataReq struct {
	model.TrainingData `json:",inline"`
}

func (req *dataReq) validate() error {
	if len(req.Features) == 0 {
		return errMissingFeatures
	}

	return nil
}

type checkpointReq struct {
	tag string
}

func (req *checkpointReq) validate() error {
	if req.tag == "" {
		return apiutil.ErrMissingID
	}

	return nil
}
