// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/notariaproj/notaria-mcp/internal/tool"
)

// ErrNeedsReview is returned by validate --fail-on-review when the report
// needs manual review.
var ErrNeedsReview = errors.New("extraction needs manual review")

// ValidateCmd validates an extraction reply against the source text.
func ValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		docType      string
		valuesPath   string
		sourcePath   string
		keys         []string
		failOnReview bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate extracted field values",
		Long: `Validate the JSON object an extraction model returned (canonical key to value)
against the field types of a document type and, with --source, against the OCR text.
Non-string values are coerced and keys outside the schema are dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, valuesPath)
			if err != nil {
				return fmt.Errorf("read values: %w", err)
			}
			if len(bytes.TrimSpace(raw)) == 0 {
				return errors.New("no extracted values given")
			}
			var source []byte
			if sourcePath != "" {
				if source, err = readInput(cmd, sourcePath); err != nil {
					return fmt.Errorf("read source text: %w", err)
				}
			}
			tools, done, err := opts.tools(cmd)
			if err != nil {
				return err
			}
			defer done()

			_, out, err := tools.ValidateExtraction(cmd.Context(), nil, tool.InputValidateExtraction{
				DocumentType: docType,
				RawReply:     string(raw),
				Keys:         keys,
				SourceText:   string(source),
			})
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if failOnReview && out.NeedsReview {
				return ErrNeedsReview
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docType, "type", "", "document type of the template (required)")
	cmd.Flags().StringVar(&valuesPath, "values", "-", "JSON file with the extracted values (- for stdin)")
	cmd.Flags().StringVar(&sourcePath, "source", "", "OCR text of the source document")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "canonical keys requested from the model (default every field)")
	cmd.Flags().BoolVar(&failOnReview, "fail-on-review", false, "exit non-zero when the report needs review")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
