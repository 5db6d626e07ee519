package cli

import (
	"github.com/0x6flab/namegenerator"
	"github.com/absmach/fedcoord/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	dataSize int64
	accuracy float64
	useCBOR  bool
)

var csdk sdk.SDK

func SetSDK(s sdk.SDK) {
	csdk = s
}

func NewNodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes [register|view|list|active|update|contributions]",
		Short: "Training nodes",
		Long:  `Register nodes, submit local updates and inspect node state.`,
	}

	registerCmd := &cobra.Command{
		Use:   "register [id] <weights>",
		Short: "Register node",
		Long: `Register a node with its initial weights. A name is generated when
the id is omitted.

Examples:
  fedcoord-cli nodes register node-1 '[0.1,0.2,0.3]'
  fedcoord-cli nodes register '[0.1,0.2,0.3]'`,
		Run: func(cmd *cobra.Command, args []string) {
			var id, raw string
			switch len(args) {
			case 1:
				id, raw = namegenerator.NewGenerator().Generate(), args[0]
			case 2:
				id, raw = args[0], args[1]
			default:
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			weights, err := parseWeights(raw)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			n, err := csdk.RegisterNode(id, weights)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, n)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View node",
		Long:  `View node.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			n, err := csdk.GetNode(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, n)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes",
		Long:  `List registered nodes.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := csdk.ListNodes(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "List active nodes",
		Long:  `List nodes that submitted within the activity window.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			active, err := csdk.ActiveNodes()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, active)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <id> <weights>",
		Short: "Submit update",
		Long: `Submit a local training result for the current round.

Examples:
  fedcoord-cli nodes update node-1 '[0.4,0.1,0.9]' --data-size 1200 --accuracy 0.87
  fedcoord-cli nodes update node-1 '[0.4,0.1,0.9]' --data-size 1200 --accuracy 0.87 --cbor`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			weights, err := parseWeights(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			update := sdk.Update{
				Weights:  weights,
				DataSize: dataSize,
				Accuracy: accuracy,
			}
			submit := csdk.SubmitUpdate
			if useCBOR {
				submit = csdk.SubmitUpdateCBOR
			}

			c, err := submit(args[0], update)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, c)
		},
	}

	updateCmd.Flags().Int64VarP(&dataSize, "data-size", "d", 1, "Number of local training samples")
	updateCmd.Flags().Float64VarP(&accuracy, "accuracy", "a", 0, "Local validation accuracy in [0, 1]")
	updateCmd.Flags().BoolVar(&useCBOR, "cbor", false, "Encode the update as CBOR")

	contributionsCmd := &cobra.Command{
		Use:   "contributions <id>",
		Short: "List contributions",
		Long:  `List the contribution history of a node.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := csdk.Contributions(args[0], defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(registerCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(activeCmd)
	cmd.AddCommand(updateCmd)
	cmd.AddCommand(contributionsCmd)

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

	return cmd
}
