package cli

import (
	"github.com/spf13/cobra"
)

var peersCmd = []cobra.Command{
	{
		Use:   "list",
		Short: "List peers",
		Long:  `List known peers and whether they are connected.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := psdk.ListPeers()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	},
	{
		Use:   "activity",
		Short: "Recent activity",
		Long:  `Show the most recent node activity, newest first.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			acts, err := psdk.Activity(defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, acts)
		},
	},
}

func NewPeersCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "peers [list|activity]",
		Short: "Peers",
		Long:  `Inspect peers and node activity.`,
	}

	for i := range peersCmd {
		cmd.AddCommand(&peersCmd[i])
	}

	peersCmd[1].Flags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return &cmd
}
