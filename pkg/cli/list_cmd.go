package cli

import (
	"github.com/spf13/cobra"

	"vis2table/internal/domain"
	"vis2table/internal/specstore"
)

func newListCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list <dataset>",
		Short: "List the chart specifications of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := specstore.New(s.DataDir).List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.Output == "json" {
				return printJSON(cmd.OutOrStdout(), refs)
			}
			t := &domain.Table{Header: []string{"dataset", "filename", "name"}, Rows: [][]any{}}
			for _, r := range refs {
				t.Rows = append(t.Rows, []any{r.Dataset, r.Filename, r.DisplayName()})
			}
			return writeTable(cmd.OutOrStdout(), t, args[0], s.Output, s.dialect)
		},
	}
}
