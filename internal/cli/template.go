// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notariaproj/notaria-mcp/internal/tool"
)

// ClassifyCmd classifies a template from its placeholders and file name.
func ClassifyCmd(opts *rootOptions) *cobra.Command {
	var (
		templateName string
		from         string
	)
	cmd := &cobra.Command{
		Use:   "classify [placeholder...]",
		Short: "Determine the document type of a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			placeholders, err := placeholderArgs(cmd, args, from)
			if err != nil {
				return err
			}
			tools, done, err := opts.tools(cmd)
			if err != nil {
				return err
			}
			defer done()

			_, out, err := tools.ClassifyTemplate(cmd.Context(), nil, tool.InputClassifyTemplate{
				Placeholders: placeholders,
				TemplateName: templateName,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&templateName, "template", "", "template file name")
	cmd.Flags().StringVar(&from, "from", "", "read placeholders from a file, one per line (- for stdin)")
	return cmd
}

// MapCmd maps placeholders to canonical keys.
func MapCmd(opts *rootOptions) *cobra.Command {
	var (
		templateName string
		docType      string
		from         string
	)
	cmd := &cobra.Command{
		Use:   "map [placeholder...]",
		Short: "Resolve template placeholders to canonical field keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			placeholders, err := placeholderArgs(cmd, args, from)
			if err != nil {
				return err
			}
			tools, done, err := opts.tools(cmd)
			if err != nil {
				return err
			}
			defer done()

			_, out, err := tools.MapPlaceholders(cmd.Context(), nil, tool.InputMapPlaceholders{
				Placeholders: placeholders,
				TemplateName: templateName,
				DocumentType: docType,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&templateName, "template", "", "template file name, used for classification")
	cmd.Flags().StringVar(&docType, "type", "", "document type; skips classification")
	cmd.Flags().StringVar(&from, "from", "", "read placeholders from a file, one per line (- for stdin)")
	return cmd
}

// placeholderArgs returns the positional placeholders followed by those read
// from the --from file. Blank lines are skipped.
func placeholderArgs(cmd *cobra.Command, args []string, from string) ([]string, error) {
	placeholders := append([]string(nil), args...)
	if from == "" {
		return placeholders, nil
	}

	var r io.Reader
	if from == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(from)
		if err != nil {
			return nil, fmt.Errorf("open placeholders: %w", err)
		}
		defer f.Close()
		r = f
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			placeholders = append(placeholders, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read placeholders: %w", err)
	}
	return placeholders, nil
}
