package cli

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/yahyaAbdulSattar/major-project/pkg/sdk"
)

var errNoChanges = errors.New("no config fields given")

var (
	includeSelf bool

	patchInputShape  string
	patchOutputShape string
	patchHidden      string
	patchClasses     int
	patchLR          float64
	patchBatchSize   int
	patchEpochs      int
	patchSeed        int64
)

// modelAnswers holds the raw text of the interactive model form.
type modelAnswers struct {
	InputShape   string
	NumClasses   string
	OutputShape  string
	HiddenUnits  string
	LearningRate string
	BatchSize    string
	Epochs       string
}

func defaultAnswers() modelAnswers {
	return modelAnswers{
		InputShape:   "784",
		NumClasses:   "10",
		LearningRate: "0.01",
		BatchSize:    "32",
		Epochs:       "5",
	}
}

func (a modelAnswers) config() (sdk.ModelConfig, error) {
	var (
		cfg sdk.ModelConfig
		err error
	)
	if cfg.InputShape, err = parseDims(a.InputShape); err != nil {
		return sdk.ModelConfig{}, err
	}
	if cfg.OutputShape, err = parseDims(a.OutputShape); err != nil {
		return sdk.ModelConfig{}, err
	}
	if cfg.HiddenUnits, err = parseDims(a.HiddenUnits); err != nil {
		return sdk.ModelConfig{}, err
	}
	if a.NumClasses != "" {
		if cfg.NumClasses, err = strconv.Atoi(a.NumClasses); err != nil {
			return sdk.ModelConfig{}, err
		}
	}
	if cfg.LearningRate, err = strconv.ParseFloat(a.LearningRate, 64); err != nil {
		return sdk.ModelConfig{}, err
	}
	if cfg.BatchSize, err = strconv.Atoi(a.BatchSize); err != nil {
		return sdk.ModelConfig{}, err
	}
	if cfg.Epochs, err = strconv.Atoi(a.Epochs); err != nil {
		return sdk.ModelConfig{}, err
	}

	return cfg, nil
}

func validateDims(s string) error {
	_, err := parseDims(s)

	return err
}

func validateInt(s string) error {
	if s == "" {
		return nil
	}
	_, err := strconv.Atoi(s)

	return err
}

func validateFloat(s string) error {
	_, err := strconv.ParseFloat(s, 64)

	return err
}

func modelForm(a *modelAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Input shape").
				Description("Comma separated, e.g. 4 or 28,28,1").
				Value(&a.InputShape).
				Validate(validateDims),
			huh.NewInput().
				Title("Classes").
				Description("Leave empty or 1 for regression").
				Value(&a.NumClasses).
				Validate(validateInt),
			huh.NewInput().
				Title("Output shape").
				Description("Regression output, comma separated").
				Value(&a.OutputShape).
				Validate(validateDims),
			huh.NewInput().
				Title("Hidden units").
				Value(&a.HiddenUnits).
				Validate(validateDims),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Learning rate").
				Value(&a.LearningRate).
				Validate(validateFloat),
			huh.NewInput().
				Title("Batch size").
				Value(&a.BatchSize).
				Validate(validateInt),
			huh.NewInput().
				Title("Epochs").
				Value(&a.Epochs).
				Validate(validateInt),
		),
	)
}

var modelCmd = []cobra.Command{
	{
		Use:   "init [config.json]",
		Short: "Initialize model",
		Long: `Initialize the node model from a JSON config file, or interactively
when no file is given.

Examples:
  fedpeer-cli model init model.json
  fedpeer-cli model init`,
		Run: func(cmd *cobra.Command, args []string) {
			var cfg sdk.ModelConfig
			switch len(args) {
			case 1:
				if err := readJSONFile(args[0], &cfg); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			case 0:
				answers := defaultAnswers()
				if err := modelForm(&answers).Run(); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				var err error
				if cfg, err = answers.config(); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			default:
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := psdk.InitializeModel(cfg)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	},
	{
		Use:   "config",
		Short: "Update model config",
		Long: `Update model config fields. While a round runs the change is queued.

Examples:
  fedpeer-cli model config --learning-rate 0.001 --epochs 3`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			patch, err := patchFromFlags(cmd)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			info, err := psdk.SetConfig(patch)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if info.Queued {
				logInfoCmd(*cmd, "config queued until the current round ends")
			}
			logJSONCmd(*cmd, info.Config)
		},
	},
	{
		Use:   "weights",
		Short: "View weights",
		Long:  `View the current model weights.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			w, err := psdk.Weights()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, w)
		},
	},
	{
		Use:   "set-weights <weights.json>",
		Short: "Replace weights",
		Long:  `Replace the model weights with a snapshot read from a JSON file.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var weights []sdk.Tensor
			if err := readJSONFile(args[0], &weights); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if err := psdk.SetWeights(weights); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	},
	{
		Use:   "aggregate [snapshots.json]",
		Short: "Aggregate snapshots",
		Long: `Average peer snapshots into the local model outside of a round.

Examples:
  fedpeer-cli model aggregate peers.json --include-self`,
		Run: func(cmd *cobra.Command, args []string) {
			var snapshots []sdk.Update
			switch len(args) {
			case 1:
				if err := readJSONFile(args[0], &snapshots); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			case 0:
			default:
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			info, err := psdk.Aggregate(snapshots, includeSelf)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, info)
		},
	},
	{
		Use:   "restore <tag>",
		Short: "Restore checkpoint",
		Long:  `Install the weights of a stored checkpoint, e.g. round-3.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := psdk.RestoreCheckpoint(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	},
}

func patchFromFlags(cmd *cobra.Command) (sdk.ConfigPatch, error) {
	var (
		patch   sdk.ConfigPatch
		changed bool
		err     error
	)
	flags := cmd.Flags()
	if flags.Changed("input-shape") {
		if patch.InputShape, err = parseDims(patchInputShape); err != nil {
			return sdk.ConfigPatch{}, err
		}
		changed = true
	}
	if flags.Changed("output-shape") {
		if patch.OutputShape, err = parseDims(patchOutputShape); err != nil {
			return sdk.ConfigPatch{}, err
		}
		changed = true
	}
	if flags.Changed("hidden-units") {
		if patch.HiddenUnits, err = parseDims(patchHidden); err != nil {
			return sdk.ConfigPatch{}, err
		}
		changed = true
	}
	if flags.Changed("classes") {
		patch.NumClasses = &patchClasses
		changed = true
	}
	if flags.Changed("learning-rate") {
		patch.LearningRate = &patchLR
		changed = true
	}
	if flags.Changed("batch-size") {
		patch.BatchSize = &patchBatchSize
		changed = true
	}
	if flags.Changed("epochs") {
		patch.Epochs = &patchEpochs
		changed = true
	}
	if flags.Changed("seed") {
		patch.Seed = &patchSeed
		changed = true
	}
	if !changed {
		return sdk.ConfigPatch{}, errNoChanges
	}

	return patch, nil
}

func NewModelCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "model [init|config|weights|set-weights|aggregate|restore]",
		Short: "Local model",
		Long:  `Initialize, configure and inspect the node model.`,
	}

	for i := range modelCmd {
		cmd.AddCommand(&modelCmd[i])
	}

	cfgFlags := modelCmd[1].Flags()
	cfgFlags.StringVar(&patchInputShape, "input-shape", "", "Input shape (comma-separated)")
	cfgFlags.StringVar(&patchOutputShape, "output-shape", "", "Output shape (comma-separated)")
	cfgFlags.StringVar(&patchHidden, "hidden-units", "", "Hidden layer widths (comma-separated)")
	cfgFlags.IntVar(&patchClasses, "classes", 0, "Number of classes")
	cfgFlags.Float64Var(&patchLR, "learning-rate", 0, "Learning rate")
	cfgFlags.IntVar(&patchBatchSize, "batch-size", 0, "Batch size")
	cfgFlags.IntVar(&patchEpochs, "epochs", 0, "Epochs")
	cfgFlags.Int64Var(&patchSeed, "seed", 0, "Weight initialization seed")

	modelCmd[4].Flags().BoolVarP(
		&includeSelf,
		"include-self",
		"s",
		false,
		"Include the local model in the average",
	)

	return &cmd
}

func NewDataCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "data [upload]",
		Short: "Training data",
		Long:  `Manage the local training data.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <data.json>",
		Short: "Upload data",
		Long: `Replace the local training data with samples read from a JSON file
holding "features" and either "labels" or "targets". Use - for stdin.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var data sdk.TrainingData
			if err := readJSONFile(args[0], &data); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			n, err := psdk.UploadData(data)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, map[string]int{"samples": n})
		},
	})

	return &cmd
}
