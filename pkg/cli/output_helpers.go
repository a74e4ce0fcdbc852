package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vis2table/internal/domain"
	"vis2table/internal/table"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	switch output {
	case "", "table", "json", "csv", "html":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: use 'table', 'json', 'csv' or 'html'", output)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// terminalWidth returns stdout's width, or 0 when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// writeTable renders t in one of the table-shaped output formats.
func writeTable(w io.Writer, t *domain.Table, title, output string, dialect table.CSVDialect) error {
	switch output {
	case "csv":
		return table.Export(w, t, dialect)
	case "html":
		return table.HTMLPage(title, t).Render(w)
	default:
		_, err := fmt.Fprintln(w, table.RenderText(t, terminalWidth()))
		return err
	}
}
