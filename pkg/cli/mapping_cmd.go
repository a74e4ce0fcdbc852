package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
)

func newMappingCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "mapping <dataset> <filename>",
		Short: "Show how a specification's channels map to data fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := domain.SpecRef{Dataset: args[0], Filename: args[1]}
			if err := ref.Validate(); err != nil {
				return err
			}
			rt, err := s.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			view, err := rt.engine.Load(cmd.Context(), ref)
			if err != nil {
				return err
			}
			mapping, err := encoding.ExtractMapping(view.Spec())
			var unsupported *domain.UnsupportedMarkError
			switch {
			case errors.As(err, &unsupported):
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", err)
			case err != nil:
				return err
			}

			if s.Output == "json" {
				return printJSON(cmd.OutOrStdout(), mapping)
			}
			return writeTable(cmd.OutOrStdout(), mappingTable(mapping), ref.DisplayName()+" mapping", s.Output, s.dialect)
		},
	}
}

// mappingTable lists channel bindings followed by temporal fields.
func mappingTable(m *encoding.Result) *domain.Table {
	t := &domain.Table{Header: []string{"channel", "field"}, Rows: [][]any{}}
	if m.Mappings != nil {
		for _, ch := range m.Mappings.ForwardKeys() {
			field, _ := m.Mappings.GetForward(ch)
			t.Rows = append(t.Rows, []any{ch, field})
		}
	}
	for _, tmp := range m.Temporals {
		t.Rows = append(t.Rows, []any{"temporal", tmp.String()})
	}
	return t
}
