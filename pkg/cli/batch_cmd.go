package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vis2table/internal/domain"
	"vis2table/internal/pipeline"
	"vis2table/internal/specstore"
)

// batchSummary is the -o json rendering of a batch run.
type batchSummary struct {
	Results []batchEntry `json:"results"`
	Failed  int          `json:"failed"`
}

type batchEntry struct {
	Ref    domain.SpecRef `json:"ref"`
	Result *resultOutput  `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	File   string         `json:"file,omitempty"`
}

func newBatchCmd(s *settings) *cobra.Command {
	var (
		manifest    string
		concurrency int
		outDir      string
	)

	cmd := &cobra.Command{
		Use:   "batch [dataset]",
		Short: "Reconstruct every specification of a dataset or manifest",
		Example: `  vis2table batch cars --concurrency 8
  vis2table batch --manifest charts.yaml --out-dir tables -o csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (manifest == "") == (len(args) == 0) {
				return fmt.Errorf("pass either a dataset or --manifest")
			}
			if outDir != "" && s.Output == "json" {
				return fmt.Errorf("--out-dir writes table files; use -o csv, html or table")
			}

			rt, err := s.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			var refs []domain.SpecRef
			if manifest != "" {
				m, err := specstore.LoadManifest(manifest)
				if err != nil {
					return err
				}
				refs = m.Refs()
			} else if refs, err = rt.store.List(cmd.Context(), args[0]); err != nil {
				return err
			}

			items := rt.pipe.RunBatch(cmd.Context(), rt.engine, refs, concurrency)
			summary := batchSummary{Results: make([]batchEntry, 0, len(items))}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			for _, it := range items {
				entry := batchEntry{Ref: it.Ref}
				if it.Err != nil {
					summary.Failed++
					entry.Error = it.Err.Error()
					summary.Results = append(summary.Results, entry)
					if s.Output != "json" {
						_, _ = fmt.Fprintf(errOut, "error: %s: %v\n", it.Ref, it.Err)
					}
					continue
				}

				switch {
				case s.Output == "json":
					ro := newResultOutput(it.Result)
					entry.Result = &ro
				case outDir != "":
					path, err := writeTableFile(outDir, it.Result, s)
					if err != nil {
						return err
					}
					entry.File = path
					_, _ = fmt.Fprintf(out, "%s -> %s\n", it.Ref, path)
				default:
					_, _ = fmt.Fprintf(out, "== %s ==\n", it.Result.Ref.DisplayName())
					if err := writeResult(out, errOut, it.Result, s); err != nil {
						return err
					}
				}
				summary.Results = append(summary.Results, entry)
			}

			if s.Output == "json" {
				if err := printJSON(out, summary); err != nil {
					return err
				}
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d visualizations failed", summary.Failed, len(items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "YAML manifest listing visualizations")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Visualizations reconstructed in parallel")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write one file per table to this directory")
	return cmd
}

// writeTableFile writes res to <dir>/<dataset>/<name>.<ext>, choosing the
// extension from the output format (csv for the terminal format).
func writeTableFile(dir string, res *pipeline.Result, s *settings) (string, error) {
	format := s.Output
	if format == "table" || format == "" {
		format = "csv"
	}
	base := strings.TrimSuffix(res.Ref.Filename, filepath.Ext(res.Ref.Filename))
	path := filepath.Join(dir, res.Ref.Dataset, base+"."+format)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // path is built from validated refs
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	if err := writeTable(f, res.Table, res.Ref.DisplayName(), format, s.dialect); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}
