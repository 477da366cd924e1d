package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yahyaAbdulSattar/major-project/pkg/sdk"
)

var watchKinds []string

var roundsCmd = []cobra.Command{
	{
		Use:   "start [peer_id...]",
		Short: "Start round",
		Long: `Start a training round with the given participants.

Examples:
  # Train with two peers
  fedpeer-cli rounds start peer-a peer-b

  # Train with the participants listed in the node config file
  fedpeer-cli rounds start`,
		Run: func(cmd *cobra.Command, args []string) {
			participants := args
			if len(participants) == 0 {
				participants = defParticipants
			}
			if len(participants) == 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			info, err := psdk.StartRound(participants)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, info)
		},
	},
	{
		Use:   "view <number>",
		Short: "View round",
		Long:  `View round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			r, err := psdk.GetRound(number)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	},
	{
		Use:   "list",
		Short: "List rounds",
		Long:  `List past and current rounds.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := psdk.ListRounds(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	},
	{
		Use:   "watch",
		Short: "Watch events",
		Long: `Print coordinator events as they happen.

Examples:
  # Only round outcomes
  fedpeer-cli rounds watch --kind round_completed,round_failed`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			err := psdk.WatchEvents(ctx, watchKinds, func(e sdk.Event) error {
				logJSONCmd(*cmd, e)

				return nil
			})
			if err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	},
}

func NewRoundsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "rounds [start|view|list|watch]",
		Short: "Training rounds",
		Long:  `Start, view, list and watch training rounds.`,
	}

	for i := range roundsCmd {
		cmd.AddCommand(&roundsCmd[i])
	}

	roundsCmd[3].Flags().StringSliceVarP(
		&watchKinds,
		"kind",
		"k",
		nil,
		"Event kinds to watch (comma-separated)",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return &cmd
}

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Node status",
		Long:  `Show the coordinator state of the node.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			st, err := psdk.Status()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}
}
