package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [aggregate|view|model|best]",
		Short: "Training rounds",
		Long:  `Close rounds and inspect global models.`,
	}

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Close round",
		Long:  `Aggregate the pending submissions into the next global model.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			res, err := csdk.Aggregate()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <round>",
		Short: "View round model",
		Long:  `View the global model committed for a round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			round, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			m, err := csdk.RoundModel(round)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "View current model",
		Long:  `View the current global model.`,
		Run: func(cmd *cobra.Command, _ []string) {
			m, err := csdk.GlobalModel()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	bestCmd := &cobra.Command{
		Use:   "best",
		Short: "View best model",
		Long:  `View the committed model with the highest accuracy.`,
		Run: func(cmd *cobra.Command, _ []string) {
			m, err := csdk.BestModel()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	cmd.AddCommand(aggregateCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(modelCmd)
	cmd.AddCommand(bestCmd)

	return cmd
}

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Coordinator status",
		Long:  `Show the current round, accuracy and active nodes.`,
		Run: func(cmd *cobra.Command, _ []string) {
			st, err := csdk.Status()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, st)
		},
	}
}
