// Command primetool generates, issues, inspects and seals PRIME objects and
// runs STACIE derivations from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	magma "github.com/lavabit/magma-sub003"
)

// Config holds the I/O streams for the CLI.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config using the process streams.
func DefaultConfig() *Config {
	return &Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// exitFunc is swapped out by tests.
var exitFunc = os.Exit

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	exitFunc(1)
}

// app carries the global flags and the engine shared by subcommands.
type app struct {
	cfg        *Config
	configPath string
	envFile    string
	binary     bool
	engine     *magma.Engine
}

func run(args []string, cfg *Config) error {
	if len(args) < 2 {
		return errors.New("usage: primetool <command> [flags]")
	}
	root := newRootCmd(cfg)
	root.SetArgs(args[1:])
	return root.Execute()
}

func newRootCmd(cfg *Config) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "primetool",
		Short:         "PRIME object and STACIE derivation tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadConfig(a.configPath, a.envFile)
			if err != nil {
				return err
			}
			a.engine, err = fc.engine()
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.engine == nil {
				return nil
			}
			return a.engine.Close()
		},
	}
	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file loaded before reading MAGMA_* variables")
	root.PersistentFlags().BoolVar(&a.binary, "binary", false, "write objects in binary instead of armored form")

	root.AddCommand(
		a.keygenCmd(),
		a.signetCmd(),
		a.requestCmd(),
		a.signCmd(),
		a.verifyCmd(),
		a.fingerprintCmd(),
		a.sealCmd(),
		a.openCmd(),
		a.protectCmd(),
		a.unprotectCmd(),
		a.unpackCmd(),
		a.armorCmd(),
		a.unarmorCmd(),
		a.roundsCmd(),
		a.deriveCmd(),
	)
	return root
}
