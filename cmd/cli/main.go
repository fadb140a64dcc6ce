package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"studykit/adapters/excel"
	"studykit/adapters/postgres"
	"studykit/adapters/redcap"
	"studykit/adapters/stats/engine"
	"studykit/app"
	"studykit/domain/frame"
	domainstats "studykit/domain/stats"
	"studykit/internal/config"
	"studykit/internal/report"
	"studykit/internal/tables"
	"studykit/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studykit",
		Short: "Survey-data analysis toolkit: pulls, summary tables, correlation comparisons",
	}

	rootCmd.AddCommand(
		newPullCmd(),
		newSteigerCmd(),
		newFreqCmd(),
		newAllApplyCmd(),
		newDescribeCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newPullCmd() *cobra.Command {
	var labels bool
	var out string
	var archive bool

	cmd := &cobra.Command{
		Use:   "pull <report-id>",
		Short: "Pull a saved report from REDCap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireRedcap(); err != nil {
				return err
			}

			client, err := redcap.NewClient(redcap.Config{
				APIURL:        cfg.Redcap.APIURL,
				TokenEnv:      cfg.Redcap.TokenEnv,
				Timeout:       cfg.Redcap.Timeout,
				RatePerSecond: cfg.Redcap.RatePerSecond,
				MaxConcurrent: cfg.Redcap.MaxConcurrent,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			var store ports.SnapshotStore
			if archive {
				if err := cfg.RequireDatabase(); err != nil {
					return err
				}
				db, err := sqlx.Connect("postgres", cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				store = postgres.NewSnapshotRepository(db)
			}

			service := app.NewAnalysisService(client, store)
			result, err := service.PullAndArchive(cmd.Context(), app.PullRequest{
				ReportID: args[0],
				Labels:   labels,
				Archive:  archive,
			})
			if err != nil {
				return err
			}

			snap := result.Snapshot
			fmt.Printf("Pulled report %s: %d rows, checksum %s\n", snap.ReportID, snap.Rows, snap.Checksum)
			if result.Archived {
				fmt.Printf("Archived as snapshot %s\n", snap.ID)
			}

			if out != "" {
				if err := writeFrame(out, snap.Frame); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&labels, "labels", false, "Export display labels instead of raw codes")
	cmd.Flags().StringVar(&out, "out", "", "Write the export to a .csv or .xlsx file")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive the snapshot (requires DATABASE_URL)")

	return cmd
}

func newSteigerCmd() *cobra.Command {
	var method string
	var out string

	cmd := &cobra.Command{
		Use:   "steiger <data.csv> [columns...]",
		Short: "Compare all pairs of correlations with Steiger's Z test",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domainstats.ParseMethod(method)
			if err != nil {
				return err
			}

			f, err := excel.NewReader().ReadFile(args[0])
			if err != nil {
				return err
			}

			result, err := runSteiger(cmd.Context(), f, args[0], args[1:], parsed)
			if err != nil {
				return err
			}

			fmt.Print(result.Table.Markdown())
			for _, s := range result.Result.Skipped {
				fmt.Printf("skipped %s: %s\n", s.Label(), s.Detail)
			}

			if out != "" {
				exportFrame, err := result.Result.Frame()
				if err != nil {
					return err
				}
				if err := writeFrame(out, exportFrame); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "pearson", "Correlation method: pearson or spearman")
	cmd.Flags().StringVar(&out, "out", "", "Write the comparison table to a .csv or .xlsx file")

	return cmd
}

func newFreqCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "freq <data.csv> <column>",
		Short: "Frequency and proportion table for one column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := excel.NewReader().ReadFile(args[0])
			if err != nil {
				return err
			}

			table, err := tables.FreqProp(f, args[1])
			if err != nil {
				return err
			}
			return printTable(table, outputFormat)
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "md", "Output format: md, csv, or html")

	return cmd
}

func newAllApplyCmd() *cobra.Command {
	var title string
	var sortByPct bool
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "allapply <data.csv> <columns...>",
		Short: "Select-all-that-apply summary over checkbox columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := excel.NewReader().ReadFile(args[0])
			if err != nil {
				return err
			}

			table, err := tables.AllApply(f, args[1:], title, sortByPct)
			if err != nil {
				return err
			}
			return printTable(table, outputFormat)
		},
	}

	cmd.Flags().StringVar(&title, "title", "Response", "Group title for the first column")
	cmd.Flags().BoolVar(&sortByPct, "sort", false, "Sort by count descending")
	cmd.Flags().StringVar(&outputFormat, "format", "md", "Output format: md, csv, or html")

	return cmd
}

func newDescribeCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "describe <data.csv> [columns...]",
		Short: "Descriptive summary of numeric columns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := excel.NewReader().ReadFile(args[0])
			if err != nil {
				return err
			}

			result, err := engine.Describe(f, args[1:])
			if err != nil {
				return err
			}
			return printTable(result.Table(), outputFormat)
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "md", "Output format: md, csv, or html")

	return cmd
}

func newReportCmd() *cobra.Command {
	var out string
	var method string
	var columns []string

	cmd := &cobra.Command{
		Use:   "report <data.csv>",
		Short: "Assemble the standard study report (describe + correlation comparisons)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domainstats.ParseMethod(method)
			if err != nil {
				return err
			}

			f, err := excel.NewReader().ReadFile(args[0])
			if err != nil {
				return err
			}

			described, err := engine.Describe(f, columns)
			if err != nil {
				return err
			}

			sweep, err := runSteiger(cmd.Context(), f, args[0], columns, parsed)
			if err != nil {
				return err
			}

			title := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			r := report.Standard(title, described.Table(), sweep.Table, f.RowCount())

			if err := r.WriteFiles(out); err != nil {
				return err
			}
			fmt.Printf("Wrote %s and %s\n", filepath.Join(out, "report.md"), filepath.Join(out, "report.html"))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", ".", "Output directory")
	cmd.Flags().StringVar(&method, "method", "pearson", "Correlation method: pearson or spearman")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to analyze (default: all)")

	return cmd
}

func runSteiger(ctx context.Context, f *frame.Frame, path string, columns []string, method domainstats.Method) (*app.SteigerRunResult, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		body = nil // fingerprint falls back to parameters only
	}

	service := app.NewAnalysisService(nil, nil)
	return service.RunSteiger(ctx, app.SteigerRequest{
		Frame:     f,
		Columns:   columns,
		Method:    method,
		SourceCSV: body,
	})
}

func printTable(table *tables.Table, outputFormat string) error {
	switch outputFormat {
	case "md":
		fmt.Print(table.Markdown())
	case "csv":
		fmt.Print(table.CSV())
	case "html":
		html, err := table.HTML()
		if err != nil {
			return err
		}
		fmt.Print(html)
	default:
		return fmt.Errorf("unknown format '%s' (expected md, csv, or html)", outputFormat)
	}
	return nil
}

// writeFrame saves a frame as CSV or XLSX based on the extension.
func writeFrame(path string, f *frame.Frame) error {
	writer := excel.NewWriter()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writer.WriteXLSX(path, "Sheet1", f.Records())
	default:
		return writer.WriteCSV(path, f.Records())
	}
}
