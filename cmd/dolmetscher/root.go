package main

import (
	"github.com/spf13/cobra"

	"github.com/rhuss/dolmetscher/pkg/config"
	"github.com/rhuss/dolmetscher/pkg/debug"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

const appName = "dolmetscher"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Ollama-compatible gateway for hosted LLM providers",
		Long:          `dolmetscher speaks the Ollama HTTP API and forwards requests to hosted providers, selecting credentials by model-name prefix.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: $DOLMETSCHER_CONFIG, ./config.yaml, /etc/dolmetscher/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newModelsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load reads the configuration and sets up logging from it.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
