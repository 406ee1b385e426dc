package main

import (
	"fmt"
	"log/slog"

	"github.com/sourceplane/nthflow/internal/builder"
	"github.com/sourceplane/nthflow/internal/config"
	"github.com/sourceplane/nthflow/internal/flow"
	"github.com/sourceplane/nthflow/internal/loader"
	"github.com/sourceplane/nthflow/internal/logging"
	"github.com/sourceplane/nthflow/internal/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app is the state shared by the commands of one invocation
type app struct {
	settings   *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{settings: config.NewViper()}

	root := &cobra.Command{
		Use:           "nthflow",
		Short:         "Workflow compiler: definitions → execution ranks",
		Long:          "nthflow loads YAML workflow definitions, validates them and resolves every workflow into a deterministic execution order",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: nthflow.yaml in . or ./config)")
	flags.StringP("definitions", "d", "", "Definition files: a file, a directory or a glob (use ** for recursive scanning)")
	flags.String("schema", "", "Schema file replacing the built-in definition schema")
	flags.String("log-level", "info", "Log level (debug/info/warn/error)")
	flags.String("log-format", "text", "Log format (text/json)")
	a.bindFlags(flags, map[string]string{
		"definitions": "definitions",
		"schema":      "schema",
		"log-level":   "log.level",
		"log-format":  "log.format",
	})

	registerBuildCommand(root, a)
	registerValidateCommand(root, a)
	registerWorkflowsCommand(root, a)
	registerInspectCommand(root, a)
	registerShowCommand(root, a)

	return root
}

// bindFlags maps command-line flags onto config keys
func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := a.settings.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

// setup reads the configuration and builds the logger. Logs go to stderr so
// progress output on stdout stays clean.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.settings, a.configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// orchestrator wires loader, schema, builder and planner settings into a build
func (a *app) orchestrator() (*flow.Orchestrator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	var validator *schema.Validator
	var err error
	if a.cfg.Schema != "" {
		validator, err = schema.NewValidatorFromFile(a.cfg.Schema)
	} else {
		validator, err = schema.NewValidator()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load definition schema: %w", err)
	}

	source := loader.NewLoader(a.cfg.Definitions,
		loader.WithWorkers(a.cfg.Workers),
		loader.WithValidator(validator),
		loader.WithLogger(a.logger),
	)

	var ids builder.IDGenerator = builder.RandomIDs{}
	if a.cfg.StableIDs {
		ids = builder.StableIDs{}
	}

	return flow.New(source, a.logger,
		flow.WithBuilder(builder.New(builder.WithIDGenerator(ids))),
		flow.WithIsolation(a.cfg.KeepGoing),
		flow.WithWorkers(a.cfg.Workers),
	), nil
}
