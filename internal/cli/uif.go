// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/notariaproj/notaria-mcp/internal/tool"
)

// UIFCmd evaluates an operation amount against its UIF notice threshold.
func UIFCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "uif <tipo-operacion> <monto>",
		Short:   "Evaluate an operation amount against its UIF/PLD threshold",
		Example: `  notaria-mcp uif compraventa '$1,500,000.00 M.N.'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, done, err := opts.tools(cmd)
			if err != nil {
				return err
			}
			defer done()

			_, out, err := tools.EvaluateOperation(cmd.Context(), nil, tool.InputEvaluateOperation{
				OperationType: args[0],
				Amount:        args[1],
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
