package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/chtlls/cmd/chtlls/compile"
	"github.com/walteh/chtlls/cmd/chtlls/format"
	get_diagnostics "github.com/walteh/chtlls/cmd/chtlls/get-diagnostics"
	serve_lsp "github.com/walteh/chtlls/cmd/chtlls/serve-lsp"
	serve_preview "github.com/walteh/chtlls/cmd/chtlls/serve-preview"
	chtldebug "github.com/walteh/chtlls/pkg/debug"
	"github.com/walteh/chtlls/pkg/settings"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

type rootFlags struct {
	logLevel string
	logJSON  bool
	caller   bool
}

func run() error {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:          "chtlls",
		Short:        "language server, preview server and tooling for CHTL",
		SilenceUsage: true,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error); defaults to the settings file")
	rootCmd.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "write logs as JSON instead of console text")
	rootCmd.PersistentFlags().BoolVar(&flags.caller, "log-caller", false, "include the calling file and line in logs")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := flags.level()
		if err != nil {
			return err
		}

		logger := chtldebug.NewLogger(os.Stderr, chtldebug.LoggerOptions{
			Level:   level,
			Console: !flags.logJSON,
			Color:   !color.NoColor,
			Caller:  flags.caller,
			Name:    cmd.Name(),
		})

		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand(rootCmd.Version))
	rootCmd.AddCommand(serve_preview.NewServePreviewCommand())
	rootCmd.AddCommand(compile.NewCompileCommand())
	rootCmd.AddCommand(get_diagnostics.NewGetDiagnosticsCommand())
	rootCmd.AddCommand(format.NewFormatCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}

// level is the --log-level flag, or the level from the settings in the current
// directory when the flag is unset.
func (me *rootFlags) level() (zerolog.Level, error) {
	if me.logLevel != "" {
		lvl, err := zerolog.ParseLevel(me.logLevel)
		if err != nil {
			return zerolog.InfoLevel, errors.Errorf("parsing --log-level: %w", err)
		}
		return lvl, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return zerolog.InfoLevel, nil
	}
	// errors here are reported again by the commands that load settings
	s, _ := settings.Resolve(afero.NewOsFs(), cwd, os.Environ())
	return s.LogLevel(), nil
}
