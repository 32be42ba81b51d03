// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/tool"
)

// TypesCmd lists the registered document types, or the fields of one.
func TypesCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "types [document-type]",
		Short: "List document types and their canonical fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, done, err := opts.tools(cmd)
			if err != nil {
				return err
			}
			defer done()

			_, out, err := tools.ListDocumentTypes(cmd.Context(), nil, tool.InputListDocumentTypes{})
			if err != nil {
				return err
			}
			if len(args) == 1 {
				for _, s := range out.Types {
					if string(s.Type) == args[0] {
						if asJSON {
							return writeJSON(cmd.OutOrStdout(), s)
						}
						return printFields(cmd, s)
					}
				}
				return fmt.Errorf("unknown document type %q", args[0])
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tLABEL\tFIELDS")
			for _, s := range out.Types {
				name := string(s.Type)
				if s.Type == out.DefaultType {
					name += " (default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", name, s.Label, len(s.Fields))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printFields(cmd *cobra.Command, s tool.DocumentTypeSummary) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tLABEL")
	for _, f := range s.Fields {
		t := string(f.Type)
		if f.IDKind != schema.IDKindAny {
			t += "/" + string(f.IDKind)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Key, t, f.Label)
	}
	return w.Flush()
}

func documentTypeNames(types []schema.DocumentType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
