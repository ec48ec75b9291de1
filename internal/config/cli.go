package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// RegisterSolveFlags declares the flag set a "solve" subcommand accepts.
// Each subcommand owns its own flag declarations rather than sharing a
// single monolithic flag set.
func RegisterSolveFlags(fs *pflag.FlagSet) {
	fs.String("template", "", "Path to the template JSON document. (Required)")
	fs.String("data", "", "Path to the rhs data JSON document. (Required)")
	fs.String("store", "", "Store DSN: empty or ':memory:' for ephemeral SQLite, a file path to persist, or a postgres:// URL.")
	fs.String("audit", "", "Audit log DSN; empty disables auditing.")
	fs.StringSlice("column-type", nil, "Declared column type override 'symbol:type' (text|int|real|bool), repeatable.")
	fs.BoolP("verbose", "v", false, "Enable verbose stderr diagnostics.")
}

// RegisterSubstituteFlags declares the flag set a "substitute" subcommand
// accepts.
func RegisterSubstituteFlags(fs *pflag.FlagSet) {
	fs.String("template", "", "Path to the output template JSON document. (Required)")
	fs.String("source", "", "Path to a JSON binding object or array of binding objects (required unless --store reopens a persisted intermediate).")
	fs.String("store", "", "Store DSN of a previously solved, persisted intermediate to reopen as the substitute source.")
	fs.String("schema-template", "", "Path to the exact template JSON originally passed to solve; required alongside --store.")
	fs.String("audit", "", "Audit log DSN; empty disables auditing.")
	fs.StringSlice("known", nil, "Known-value override 'symbol=value', repeatable.")
	fs.BoolP("verbose", "v", false, "Enable verbose stderr diagnostics.")
}

// FromSolveFlags builds a Config for the solve subcommand from a parsed
// flag set, failing if a required flag is unset.
func FromSolveFlags(fs *pflag.FlagSet) (*Config, error) {
	tmpl, _ := fs.GetString("template")
	if tmpl == "" {
		return nil, fmt.Errorf("config: --template is required")
	}
	data, _ := fs.GetString("data")
	if data == "" {
		return nil, fmt.Errorf("config: --data is required")
	}
	store, _ := fs.GetString("store")
	audit, _ := fs.GetString("audit")
	verbose, _ := fs.GetBool("verbose")

	colTypes, err := parseColumnTypeFlags(fs)
	if err != nil {
		return nil, err
	}

	return &Config{
		Command:      CommandSolve,
		TemplatePath: tmpl,
		DataPath:     data,
		StoreDSN:     store,
		AuditDSN:     audit,
		ColumnTypes:  colTypes,
		Verbose:      verbose,
	}, nil
}

func parseColumnTypeFlags(fs *pflag.FlagSet) (map[string]string, error) {
	pairs, _ := fs.GetStringSlice("column-type")
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		name, typ, ok := strings.Cut(kv, ":")
		if !ok {
			return nil, fmt.Errorf("config: malformed --column-type %q, expected symbol:type", kv)
		}
		out[name] = typ
	}
	return out, nil
}

// FromSubstituteFlags builds a Config for the substitute subcommand.
func FromSubstituteFlags(fs *pflag.FlagSet) (*Config, error) {
	tmpl, _ := fs.GetString("template")
	if tmpl == "" {
		return nil, fmt.Errorf("config: --template is required")
	}
	source, _ := fs.GetString("source")
	store, _ := fs.GetString("store")
	if source == "" && store == "" {
		return nil, fmt.Errorf("config: one of --source or --store is required")
	}
	schemaTemplate, _ := fs.GetString("schema-template")
	if source == "" && store != "" && schemaTemplate == "" {
		return nil, fmt.Errorf("config: --schema-template is required when reopening --store")
	}
	audit, _ := fs.GetString("audit")
	verbose, _ := fs.GetBool("verbose")

	known, err := parseKnownFlags(fs)
	if err != nil {
		return nil, err
	}

	return &Config{
		Command:            CommandSubstitute,
		TemplatePath:       tmpl,
		SourcePath:         source,
		StoreDSN:           store,
		SchemaTemplatePath: schemaTemplate,
		AuditDSN:           audit,
		Known:              known,
		Verbose:            verbose,
	}, nil
}

func parseKnownFlags(fs *pflag.FlagSet) (map[string]any, error) {
	pairs, _ := fs.GetStringSlice("known")
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("config: malformed --known %q, expected symbol=value", kv)
		}
		out[name] = coerceScalar(value)
	}
	return out, nil
}

// coerceScalar parses a --known value as bool/int/float when it looks like
// one, falling back to the literal string. This is a CLI convenience only —
// the engine itself never coerces; symbol bindings are opaque host values.
func coerceScalar(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
