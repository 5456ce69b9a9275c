package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reoring/coerce/i18n"
	"github.com/reoring/coerce/internal/cli"
	"github.com/reoring/coerce/internal/console"
)

// Build-time variables
var (
	version = "dev"
)

// Global flags
var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "coerce",
	Short: "Validate and coerce JSON and YAML documents against a core schema",
	Long: `coerce validates documents against a core schema written in YAML or JSON,
for example:

  type: typed-dict
  fields:
    - {name: name, schema: {type: str, min_length: 1}}
    - {name: age, schema: {type: int, ge: 0}}

Every failure is reported with its location, kind and input value.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate --schema <schema> <file>...",
	Short: "Validate documents against a schema",
	Long: `Validate one or more JSON or YAML documents. Files ending in .json are parsed
as JSON, everything else as YAML; "-" reads standard input.

Examples:
  coerce validate --schema user.yaml users/*.yaml
  coerce validate --schema user.yaml --strict --format json alice.json
  coerce validate --schema user.yaml --watch config.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		schemaPath, _ := cmd.Flags().GetString("schema")
		watch, _ := cmd.Flags().GetBool("watch")
		v, err := cli.LoadSchema(schemaPath)
		if err != nil {
			return err
		}
		i18n.SetLanguage(cfg.Language)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		opts := cli.ValidateOptions{
			Schema:  v,
			Config:  cfg,
			Verbose: verbose,
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			Stdin:   cmd.InOrStdin(),
		}
		failed, err := validateAndReport(ctx, args, opts)
		if err != nil || !watch {
			if err == nil && failed > 0 {
				return cli.ErrInvalid
			}
			return err
		}
		fmt.Fprintln(opts.Stdout, console.FormatInfoMessage("Watching for file changes. Press Ctrl+C to stop."))
		return cli.Watch(ctx, args, func(changed []string) {
			if _, err := validateAndReport(ctx, changed, opts); err != nil {
				fmt.Fprintln(opts.Stderr, console.FormatErrorMessage(err.Error()))
			}
		}, logger(opts.Stderr))
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema --schema <schema>",
	Short: "Print the JSON Schema projection of a core schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath, _ := cmd.Flags().GetString("schema")
		check, _ := cmd.Flags().GetBool("check")
		v, err := cli.LoadSchema(schemaPath)
		if err != nil {
			return err
		}
		return cli.WriteJSONSchema(cmd.OutOrStdout(), v, check)
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the error kinds with their context keys and messages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		i18n.SetLanguage(cfg.Language)
		return cli.WriteKinds(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), console.FormatInfoMessage(fmt.Sprintf("coerce version: %s", version)))
	},
}

func validateAndReport(ctx context.Context, paths []string, opts cli.ValidateOptions) (int, error) {
	reports := cli.Validate(ctx, paths, opts)
	if err := cli.WriteReports(opts.Stdout, opts.Config.Format, reports); err != nil {
		return 0, err
	}
	return cli.Failed(reports), nil
}

// loadConfig reads --config and lets explicitly set flags override it.
func loadConfig(cmd *cobra.Command) (cli.Config, error) {
	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("duplicate-keys") {
		cfg.DuplicateKeys, _ = flags.GetString("duplicate-keys")
	}
	if flags.Changed("lang") {
		cfg.Language, _ = flags.GetString("lang")
	}
	return cfg, cfg.Check()
}

func logger(w io.Writer) func(string, ...any) {
	return func(format string, a ...any) {
		if verbose {
			fmt.Fprintln(w, console.FormatVerboseMessage(fmt.Sprintf(format, a...)))
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML settings file")
	rootCmd.PersistentFlags().String("lang", "en", "Message language (en, ja)")

	validateCmd.Flags().StringP("schema", "s", "", "Core schema file (YAML or JSON)")
	_ = validateCmd.MarkFlagRequired("schema")
	validateCmd.Flags().Bool("strict", false, "Disable lax coercions")
	validateCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or yaml")
	validateCmd.Flags().IntP("workers", "j", 0, "Documents validated in parallel (default GOMAXPROCS)")
	validateCmd.Flags().Int("max-depth", 0, "Maximum container nesting (0 keeps the default)")
	validateCmd.Flags().String("duplicate-keys", "error", "Duplicate object keys: ignore, warn or error")
	validateCmd.Flags().BoolP("watch", "w", false, "Re-validate files when they change")

	schemaCmd.Flags().StringP("schema", "s", "", "Core schema file (YAML or JSON)")
	_ = schemaCmd.MarkFlagRequired("schema")
	schemaCmd.Flags().Bool("check", false, "Compile the projection with a JSON Schema validator before printing")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrInvalid) {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		}
		os.Exit(1)
	}
}
