// Command algex is the CLI front-end for the match-store-query engine
// (package algex): "algex solve" matches a template against data and
// leaves a filled intermediate; "algex substitute" reassembles documents
// from a binding source. Flags are parsed per-subcommand into a
// config.Config, then handed to a runner.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/oxhq/algex"
	"github.com/oxhq/algex/internal/audit"
	"github.com/oxhq/algex/internal/config"
	"github.com/oxhq/algex/internal/model"
	"github.com/oxhq/algex/internal/tmpljson"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "algex: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "algex",
		Short:         "Match templates against data and reassemble documents from the bindings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSolveCmd(), newSubstituteCmd())
	return root
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Match --template against --data, printing the intermediate's bound solutions as a JSON array.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromSolveFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return runSolve(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	config.RegisterSolveFlags(cmd.Flags())
	return cmd
}

func newSubstituteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "substitute",
		Short: "Reassemble --template from --source (or a reopened --store), printing one JSON document per binding.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromSubstituteFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return runSubstitute(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	config.RegisterSubstituteFlags(cmd.Flags())
	return cmd
}

func runSolve(ctx context.Context, w io.Writer, cfg *config.Config) error {
	tmplRaw, err := os.ReadFile(cfg.TemplatePath)
	if err != nil {
		return fmt.Errorf("algex solve: read template: %w", err)
	}
	tmpl, err := tmpljson.Parse(tmplRaw)
	if err != nil {
		return fmt.Errorf("algex solve: parse template: %w", err)
	}

	dataRaw, err := os.ReadFile(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("algex solve: read data: %w", err)
	}
	var data any
	if err := json.Unmarshal(dataRaw, &data); err != nil {
		return fmt.Errorf("algex solve: parse data: %w", err)
	}

	auditDB, err := openAudit(cfg.AuditDSN)
	if err != nil {
		return err
	}

	started := time.Now()
	im, solveErr := algex.Solve(ctx, tmpl, data, algex.Options{
		DSN:         cfg.StoreDSN,
		ColumnTypes: columnTypesFrom(cfg.ColumnTypes),
	})

	var rows []map[string]any
	if solveErr == nil {
		defer im.Close()
		seq, iterErr := im.Iterate(ctx)
		if iterErr != nil {
			solveErr = iterErr
		} else {
			for row := range seq {
				rows = append(rows, row)
			}
		}
	}

	if auditDB != nil {
		defer audit.Close(auditDB)
		if rerr := audit.RecordSolve(auditDB, json.RawMessage(tmplRaw), data, cfg.StoreDSN, started, len(rows), solveErr); rerr != nil && cfg.Verbose {
			fmt.Fprintf(os.Stderr, "algex: audit: %v\n", rerr)
		}
	}

	if solveErr != nil {
		return fmt.Errorf("algex solve: %w (code=%s)", solveErr, model.CodeOf(solveErr))
	}
	return printJSON(w, rows)
}

func runSubstitute(ctx context.Context, w io.Writer, cfg *config.Config) error {
	tmplRaw, err := os.ReadFile(cfg.TemplatePath)
	if err != nil {
		return fmt.Errorf("algex substitute: read template: %w", err)
	}
	tmpl, err := tmpljson.Parse(tmplRaw)
	if err != nil {
		return fmt.Errorf("algex substitute: parse template: %w", err)
	}

	auditDB, err := openAudit(cfg.AuditDSN)
	if err != nil {
		return err
	}

	started := time.Now()
	var (
		docs       []any
		sourceKind string
		subErr     error
	)

	if cfg.SourcePath != "" {
		source, kind, serr := loadFileSource(cfg.SourcePath)
		sourceKind = kind
		if serr != nil {
			subErr = serr
		} else {
			docs, subErr = algex.Substitute(ctx, tmpl, source, cfg.Known)
		}
	} else {
		sourceKind = "store"
		schemaRaw, rerr := os.ReadFile(cfg.SchemaTemplatePath)
		if rerr != nil {
			subErr = fmt.Errorf("algex substitute: read schema template: %w", rerr)
		} else if schemaTmpl, perr := tmpljson.Parse(schemaRaw); perr != nil {
			subErr = fmt.Errorf("algex substitute: parse schema template: %w", perr)
		} else if im, oerr := algex.OpenIntermediate(ctx, cfg.StoreDSN, schemaTmpl, algex.Options{}); oerr != nil {
			subErr = fmt.Errorf("algex substitute: reopen store: %w", oerr)
		} else {
			defer im.Close()
			docs, subErr = algex.Substitute(ctx, tmpl, im.AsSource(), cfg.Known)
		}
	}

	if auditDB != nil {
		defer audit.Close(auditDB)
		if rerr := audit.RecordSubstitute(auditDB, json.RawMessage(tmplRaw), cfg.Known, sourceKind, started, len(docs), subErr); rerr != nil && cfg.Verbose {
			fmt.Fprintf(os.Stderr, "algex: audit: %v\n", rerr)
		}
	}

	if subErr != nil {
		return fmt.Errorf("algex substitute: %w (code=%s)", subErr, model.CodeOf(subErr))
	}
	return printJSON(w, docs)
}

// loadFileSource decodes --source as either a single JSON object (a fixed
// binding set) or a JSON array of objects (a binding sequence).
func loadFileSource(path string) (algex.Source, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return algex.Source{}, "", fmt.Errorf("read source: %w", err)
	}
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return algex.FromBindingSequence(arr), "sequence", nil
	}
	var single map[string]any
	if err := json.Unmarshal(raw, &single); err != nil {
		return algex.Source{}, "", fmt.Errorf("parse source: %w", err)
	}
	return algex.FromBindings(single), "single", nil
}

func columnTypesFrom(raw map[string]string) map[string]algex.ColumnType {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]algex.ColumnType, len(raw))
	for name, typ := range raw {
		switch typ {
		case "text":
			out[name] = algex.ColumnText
		case "int":
			out[name] = algex.ColumnInt
		case "real":
			out[name] = algex.ColumnReal
		case "bool":
			out[name] = algex.ColumnBool
		default:
			out[name] = algex.ColumnAuto
		}
	}
	return out
}

func openAudit(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := audit.Connect(dsn, false)
	if err != nil {
		return nil, fmt.Errorf("algex: open audit log: %w", err)
	}
	return db, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
