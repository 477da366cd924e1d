package api

import (
	"fmt"
	"net/http"

	"github.com/absmach/supermq"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var (
	_ supermq.Response = (*startRoundRes)(nil)
	_ supermq.Response = (*roundRes)(nil)
	_ supermq.Response = (*listRoundsRes)(nil)
	_ supermq.Response = (*statusRes)(nil)
	_ supermq.Response = (*aggregateRes)(nil)
	_ supermq.Response = (*weightsRes)(nil)
	_ supermq.Response = (*updateWeightsRes)(nil)
	_ supermq.Response = (*modelRes)(nil)
	_ supermq.Response = (*configRes)(nil)
	_ supermq.Response = (*dataRes)(nil)
	_ supermq.Response = (*listPeersRes)(nil)
	_ supermq.Response = (*activityRes)(nil)
	_ supermq.Response = (*restoreRes)(nil)
)

type startRoundRes struct {
	coordinator.RoundInfo
}

func (res startRoundRes) Code() int {
	return http.StatusCreated
}

func (res startRoundRes) Headers() map[string]string {
	return map[string]string{
		"Location": fmt.Sprintf("/rounds/%d", res.RoundNumber),
	}
}

func (res startRoundRes) Empty() bool {
	return false
}

type roundRes struct {
	round.Round
}

func (res roundRes) Code() int {
	return http.StatusOK
}

func (res roundRes) Headers() map[string]string {
	return map[string]string{}
}

func (res roundRes) Empty() bool {
	return false
}

type listRoundsRes struct {
	round.Page
}

func (res listRoundsRes) Code() int {
	return http.StatusOK
}

func (res listRoundsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res listRoundsRes) Empty() bool {
	return false
}

type statusRes struct {
	coordinator.Status
}

func (res statusRes) Code() int {
	return http.StatusOK
}

func (res statusRes) Headers() map[string]string {
	return map[string]string{}
}

func (res statusRes) Empty() bool {
	return false
}

type aggregateRes struct {
	coordinator.AggregateInfo
}

func (res aggregateRes) Code() int {
	return http.StatusOK
}

func (res aggregateRes) Headers() map[string]string {
	return map[string]string{}
}

func (res aggregateRes) Empty() bool {
	return false
}

// weightsRes encodes as the bare snapshot, null when no model exists.
type weightsRes tensor.Snapshot

func (res weightsRes) Code() int {
	return http.StatusOK
}

func (res weightsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res weightsRes) Empty() bool {
	return false
}

type updateWeightsRes struct {
	Layers int `json:"layers"`
}

func (res updateWeightsRes) Code() int {
	return http.StatusOK
}

func (res updateWeightsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res updateWeightsRes) Empty() bool {
	return false
}

type modelRes struct {
	model.Config
	TaskKind model.TaskKind `json:"task_kind"`
}

func (res modelRes) Code() int {
	return http.StatusCreated
}

func (res modelRes) Headers() map[string]string {
	return map[string]string{}
}

func (res modelRes) Empty() bool {
	return false
}

type configRes struct {
	coordinator.ConfigInfo
}

func (res configRes) Code() int {
	return http.StatusOK
}

func (res configRes) Headers() map[string]string {
	return map[string]string{}
}

func (res configRes) Empty() bool {
	return false
}

type dataRes struct {
	coordinator.DataInfo
}

func (res dataRes) Code() int {
	return http.StatusCreated
}

func (res dataRes) Headers() map[string]string {
	return map[string]string{}
}

func (res dataRes) Empty() bool {
	return false
}

type listPeersRes struct {
	Total uint64      `json:"total"`
	Peers []peer.Peer `json:"peers"`
}

func (res listPeersRes) Code() int {
	return http.StatusOK
}

func (res listPeersRes) Headers() map[string]string {
	return map[string]string{}
}

func (res listPeersRes) Empty() bool {
	return false
}

type activityRes struct {
	Activities []peers.Activity `json:"activities"`
}

func (res activityRes) Code() int {
	return http.StatusOK
}

func (res activityRes) Headers() map[string]string {
	return map[string]string{}
}

func (res activityRes) Empty() bool {
	return false
}

type restoreRes struct {
	Tag string `json:"tag"`
}

func (res restoreRes) Code() int {
	return http.StatusOK
}

func (res restoreRes) Headers() map[string]string {
	return map[string]string{}
}

func (res restoreRes) Empty() bool {
	return false
}
