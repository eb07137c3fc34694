// Package main is the manifold demo CLI.
//
// It wires a full application around the dispatch engine: YAML config,
// structured logging, the call journal, and a built-in in-memory "records"
// service, then executes calls from the command line through the same
// pipeline a transport would use.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/manifoldhq/manifold/internal/codec"
	"github.com/manifoldhq/manifold/internal/config"
	"github.com/manifoldhq/manifold/internal/dispatcher"
	"github.com/manifoldhq/manifold/internal/journal"
	"github.com/manifoldhq/manifold/internal/monitoring"
)

var (
	configPath string
	dataJSON   string
	paramsJSON string
	resourceID string
)

// loadEnvFiles loads .env from standard locations.
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "manifold", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Local .env can override.
	_ = godotenv.Load()
}

// loadConfig resolves the configuration: explicit flag, then defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Default(), nil
}

// buildApp constructs a dispatcher with the configured hooks and the demo
// records service registered.
func buildApp(cfg *config.Config) (*dispatcher.Dispatcher, *journal.Journal, error) {
	monitoring.Global(cfg.Logging)

	d := dispatcher.New(dispatcher.Config{
		RecoverFromPanic: cfg.Dispatch.RecoverFromPanic,
		EnableMetrics:    cfg.Dispatch.EnableMetrics,
	})

	logger := monitoring.New(cfg.Logging)
	callLogger := monitoring.NewCallLogger(logger, cfg.Dispatch.SlowCallThreshold.Std())
	if err := d.Hooks(callLogger.Hooks()); err != nil {
		return nil, nil, err
	}

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		var err error
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := d.Hooks(jnl.Hooks()); err != nil {
			_ = jnl.Close()
			return nil, nil, err
		}
	}

	if _, err := d.Register("records", newRecordsService()); err != nil {
		return nil, nil, err
	}
	return d, jnl, nil
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <service> <method>",
		Short: "Execute one service call through the hook pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			d, jnl, err := buildApp(cfg)
			if err != nil {
				return err
			}
			if jnl != nil {
				defer jnl.Close()
			}

			// Assemble the call document the way a transport would hand it over.
			doc := []byte(`{}`)
			doc, _ = sjson.SetBytes(doc, "service", args[0])
			doc, _ = sjson.SetBytes(doc, "method", args[1])
			if resourceID != "" {
				doc, _ = sjson.SetBytes(doc, "id", resourceID)
			}
			if paramsJSON != "" {
				if doc, err = sjson.SetRawBytes(doc, "params", []byte(paramsJSON)); err != nil {
					return fmt.Errorf("invalid --params: %w", err)
				}
			}
			if dataJSON != "" {
				if doc, err = sjson.SetRawBytes(doc, "data", []byte(dataJSON)); err != nil {
					return fmt.Errorf("invalid --data: %w", err)
				}
			}

			call, err := codec.ParseCall(doc)
			if err != nil {
				return err
			}

			ctx, err := d.Execute(call)
			if err != nil {
				return err
			}

			out, err := codec.EncodeContext(ctx)
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if ctx.Err != nil {
				// os.Exit skips the deferred close.
				if jnl != nil {
					_ = jnl.Close()
				}
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&resourceID, "id", "", "resource identifier")
	cmd.Flags().StringVar(&dataJSON, "data", "", "JSON payload")
	cmd.Flags().StringVar(&paramsJSON, "params", "", "JSON call parameters")
	return cmd
}

func newJournalCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled; enable it in the config file")
			}

			jnl, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer jnl.Close()

			entries, err := jnl.Recent(limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				status := "ok"
				if !e.OK {
					status = "error: " + e.Error
				}
				fmt.Printf("%s  %s.%s  %s  %s\n",
					e.At.Format(time.RFC3339), e.Path, e.Method, e.Duration, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to list")
	return cmd
}

func main() {
	loadEnvFiles()

	root := &cobra.Command{
		Use:           "manifold",
		Short:         "Layered hook dispatch engine for named services",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(newCallCmd())
	root.AddCommand(newJournalCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
