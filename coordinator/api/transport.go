package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	svcName  = "fedpeer"
	roundKey = "number"
	tagKey   = "tag"
)

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			startRoundEndpoint(svc),
			decodeStartRoundReq,
			api.EncodeResponse,
			opts...,
		), "start-round").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listRoundsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-rounds").ServeHTTP)
		r.Get("/{number}", otelhttp.NewHandler(kithttp.NewServer(
			getRoundEndpoint(svc),
			decodeRoundReq,
			api.EncodeResponse,
			opts...,
		), "get-round").ServeHTTP)
	})

	mux.Get("/status", otelhttp.NewHandler(kithttp.NewServer(
		statusEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "status").ServeHTTP)

	mux.Post("/aggregate", otelhttp.NewHandler(kithttp.NewServer(
		aggregateEndpoint(svc),
		decodeAggregateReq,
		api.EncodeResponse,
		opts...,
	), "aggregate").ServeHTTP)

	mux.Route("/weights", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			getWeightsEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-weights").ServeHTTP)
		r.Put("/", otelhttp.NewHandler(kithttp.NewServer(
			updateWeightsEndpoint(svc),
			decodeWeightsReq,
			api.EncodeResponse,
			opts...,
		), "update-weights").ServeHTTP)
	})

	mux.Route("/model", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			initializeModelEndpoint(svc),
			decodeModelReq,
			api.EncodeResponse,
			opts...,
		), "initialize-model").ServeHTTP)
		r.Patch("/config", otelhttp.NewHandler(kithttp.NewServer(
			setConfigEndpoint(svc),
			decodeConfigReq,
			api.EncodeResponse,
			opts...,
		), "set-config").ServeHTTP)
	})

	mux.Post("/data", otelhttp.NewHandler(kithttp.NewServer(
		uploadDataEndpoint(svc),
		decodeDataReq,
		api.EncodeResponse,
		opts...,
	), "upload-data").ServeHTTP)

	mux.Post("/checkpoints/{tag}/restore", otelhttp.NewHandler(kithttp.NewServer(
		restoreCheckpointEndpoint(svc),
		decodeCheckpointReq,
		api.EncodeResponse,
		opts...,
	), "restore-checkpoint").ServeHTTP)

	mux.Get("/peers", otelhttp.NewHandler(kithttp.NewServer(
		listPeersEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "list-peers").ServeHTTP)

	mux.Get("/activity", otelhttp.NewHandler(kithttp.NewServer(
		activityEndpoint(svc),
		decodeActivityReq,
		api.EncodeResponse,
		opts...,
	), "list-activity").ServeHTTP)

	mux.Get("/events", streamEvents(svc, logger))

	mux.Get("/health", supermq.Health(svcName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

// decodeJSON checks the content type and decodes the body into req.
func decodeJSON(r *http.Request, req any) error {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return errors.Join(err, apiutil.ErrValidation)
	}

	return nil
}

func decodeStartRoundReq(_ context.Context, r *http.Request) (any, error) {
	var req startRoundReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeRoundReq(_ context.Context, r *http.Request) (any, error) {
	n, err := strconv.ParseUint(chi.URLParam(r, roundKey), 10, 64)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return roundReq{number: n}, nil
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

func decodeActivityReq(_ context.Context, r *http.Request) (any, error) {
	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return activityReq{limit: l}, nil
}

func decodeAggregateReq(_ context.Context, r *http.Request) (any, error) {
	var req aggregateReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeWeightsReq(_ context.Context, r *http.Request) (any, error) {
	var req weightsReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeModelReq(_ context.Context, r *http.Request) (any, error) {
	var req modelReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeConfigReq(_ context.Context, r *http.Request) (any, error) {
	var req configReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeDataReq(_ context.Context, r *http.Request) (any, error) {
	var req dataReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeCheckpointReq(_ context.Context, r *http.Request) (any, error) {
	return checkpointReq{tag: chi.URLParam(r, tagKey)}, nil
}
