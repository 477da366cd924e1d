package sdk

import (
	"net/http"
)

type ModelConfig struct {
	InputShape   []int   `json:"input_shape"`
	OutputShape  []int   `json:"output_shape,omitempty"`
	NumClasses   int     `json:"num_classes,omitempty"`
	LearningRate float64 `json:"learning_rate"`
	BatchSize    int     `json:"batch_size"`
	Epochs       int     `json:"epochs"`
	HiddenUnits  []int   `json:"hidden_units,omitempty"`
	Seed         int64   `json:"seed,omitempty"`
}

type Model struct {
	ModelConfig
	TaskKind string `json:"task_kind"`
}

// ConfigPatch leaves nil fields unchanged.
type ConfigPatch struct {
	InputShape   []int    `json:"input_shape,omitempty"`
	OutputShape  []int    `json:"output_shape,omitempty"`
	NumClasses   *int     `json:"num_classes,omitempty"`
	LearningRate *float64 `json:"learning_rate,omitempty"`
	BatchSize    *int     `json:"batch_size,omitempty"`
	Epochs       *int     `json:"epochs,omitempty"`
	HiddenUnits  []int    `json:"hidden_units,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

type ConfigInfo struct {
	Config ModelConfig `json:"config"`
	Queued bool        `json:"queued"`
}

type TrainingData struct {
	Features [][]float64 `json:"features"`
	Labels   []float64   `json:"labels,omitempty"`
	Targets  [][]float64 `json:"targets,omitempty"`
}

func (sdk *propSDK) Weights() ([]Tensor, error) {
	var weights []Tensor
	if err := sdk.do(http.MethodGet, "/weights", nil, http.StatusOK, &weights); err != nil {
		return nil, err
	}

	return weights, nil
}

func (sdk *propSDK) SetWeights(weights []Tensor) error {
	req := struct {
		Weights []Tensor `json:"weights"`
	}{Weights: weights}

	return sdk.do(http.MethodPut, "/weights", req, http.StatusOK, nil)
}

func (sdk *propSDK) InitializeModel(cfg ModelConfig) (Model, error) {
	var m Model
	if err := sdk.do(http.MethodPost, "/model", cfg, http.StatusCreated, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *propSDK) SetConfig(patch ConfigPatch) (ConfigInfo, error) {
	var info ConfigInfo
	if err := sdk.do(http.MethodPatch, "/model/config", patch, http.StatusOK, &info); err != nil {
		return ConfigInfo{}, err
	}

	return info, nil
}

func (sdk *propSDK) UploadData(data TrainingData) (int, error) {
	var res struct {
		Samples int `json:"samples"`
	}
	if err := sdk.do(http.MethodPost, "/data", data, http.StatusCreated, &res); err != nil {
		return 0, err
	}

	return res.Samples, nil
}

func (sdk *propSDK) RestoreCheckpoint(tag string) error {
	return sdk.do(http.MethodPost, "/checkpoints/"+tag+"/restore", nil, http.StatusOK, nil)
}
