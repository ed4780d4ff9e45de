package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/boristopalov/droidbench/pkg/config"
	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/logger"
	"github.com/boristopalov/droidbench/pkg/registry"
)

func main() {
	for _, envFile := range []string{
		".env",
		"../../.env",
		"../../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := newRootCmd(nil).Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool
	serial     string
	fake       bool

	cfg      *config.ExperimentConfig
	registry *registry.Registry
	log      logger.Logger
	logFile  io.Closer
	// device overrides the configured device, for tests.
	device device.Device
}

func newRootCmd(dev device.Device) *cobra.Command {
	a := &app{device: dev}
	rootCmd := &cobra.Command{
		Use:           "droidbench",
		Short:         "droidbench runs and scores composite tasks on an Android emulator.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile != nil {
				return a.logFile.Close()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "suite file (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	flags.BoolVar(&a.logJSON, "log-json", false, "log as JSON")
	flags.StringVarP(&a.serial, "serial", "s", "", "emulator serial (defaults to $ANDROID_SERIAL)")
	flags.BoolVar(&a.fake, "fake", false, "use the in-memory emulator")

	rootCmd.AddCommand(
		a.listCmd(),
		a.describeCmd(),
		a.validateCmd(),
		a.runCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logJSON {
		cfg.Logging.JSON = true
	}
	if a.serial != "" {
		cfg.Device.Serial = a.serial
	}
	if a.fake {
		cfg.Device.Fake = true
	}
	a.cfg = cfg

	out := cmd.ErrOrStderr()
	if cfg.Logging.Path != "" {
		f, err := os.OpenFile(cfg.Logging.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		out = f
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.JSON = cfg.Logging.JSON
	logCfg.Output = out
	logger.Init(logCfg)
	a.log = logger.GetDefault()
	cmd.SetContext(logger.ContextWithLogger(contextOf(cmd), a.log))

	a.registry = registry.Default()
	return a.registry.AddComposites(cfg.Composites)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openDevice returns the configured device: the override, the in-memory
// emulator, or adb.
func (a *app) openDevice() (device.Device, error) {
	if a.device != nil {
		return a.device, nil
	}
	if a.cfg.Device.Fake {
		a.log.Warn("Using the in-memory emulator")
		return device.NewFake(), nil
	}
	return device.NewADB(
		device.WithCommand(a.cfg.Device.ADB),
		device.WithSerial(a.cfg.Device.Serial),
		device.WithTimeout(a.cfg.Device.Timeout),
		device.WithLogger(a.log),
	)
}
