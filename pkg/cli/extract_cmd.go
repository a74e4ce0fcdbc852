package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vis2table/internal/domain"
	"vis2table/internal/pipeline"
	"vis2table/internal/table"
)

// resultOutput is the -o json rendering of a reconstruction.
type resultOutput struct {
	*pipeline.Result
	Warnings []string `json:"warnings"`
}

func newResultOutput(res *pipeline.Result) resultOutput {
	return resultOutput{Result: res, Warnings: res.WarningMessages()}
}

func newExtractCmd(s *settings) *cobra.Command {
	var (
		name     string
		fragment bool
	)

	cmd := &cobra.Command{
		Use:   "extract <dataset> <filename>",
		Short: "Reconstruct the table behind one chart specification",
		Example: `  vis2table extract cars hp_by_origin.json
  vis2table extract cars hp_by_origin.json -o csv --csv-dialect legacy
  vis2table extract stocks prices.json --engine snapshot -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := domain.SpecRef{Dataset: args[0], Filename: args[1], Name: name}
			if err := ref.Validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var sinks []domain.TableSink
			if fragment {
				if s.Output != "html" {
					return fmt.Errorf("--fragment requires -o html")
				}
				sinks = append(sinks, table.NewHTMLSink(out))
			}
			rt, err := s.open(cmd, sinks...)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.pipe.RunRef(cmd.Context(), rt.engine, ref)
			if err != nil {
				return err
			}
			if fragment {
				return nil
			}
			return writeResult(out, cmd.ErrOrStderr(), res, s)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name of the visualization")
	cmd.Flags().BoolVar(&fragment, "fragment", false, "With -o html, print only the <table> element")
	return cmd
}

// writeResult prints res in s.Output; warnings go to errOut except under
// -o json, which carries them in the document.
func writeResult(out, errOut io.Writer, res *pipeline.Result, s *settings) error {
	if s.Output == "json" {
		return printJSON(out, newResultOutput(res))
	}
	for _, w := range res.WarningMessages() {
		_, _ = fmt.Fprintf(errOut, "warning: %s\n", w)
	}
	return writeTable(out, res.Table, res.Ref.DisplayName(), s.Output, s.dialect)
}
