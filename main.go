// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	internalcmd "github.com/mia-platform/utilkit/internal/cmd"
	"github.com/mia-platform/utilkit/internal/info"
	"github.com/mia-platform/utilkit/internal/logger"
)

var (
	// Version is injected at build time via the Makefile.
	Version = info.Version
	// BuildDate is injected at build time via the Makefile.
	BuildDate = info.BuildDate

	appName      = info.AppName
	versionShort = "Display the " + appName + " version"
)

const (
	appShort = "utilkit sends HTTP requests and serves a local echo server, logging to rotated files"

	envPrefix = "UTILKIT_"

	logLevelFlagName      = "log-level"
	logLevelShortFlagName = "v"

	logNameFlagName  = "log-name"
	logNameFlagUsage = "name of the log directory and of the log files"

	logDirFlagName  = "log-dir"
	logDirFlagUsage = "parent directory of the log directory, overrides the one selected by --mode"

	modeFlagName  = "mode"
	modeFlagUsage = `deployment mode (possible values: development, production).
	development writes logs under ./log and echoes every line on stderr,
	production writes logs under /var/log and echoes only errors`

	versionCmdName = "version"
)

var (
	allLoggerLevels = []string{
		logger.TRACE.String(),
		logger.DEBUG.String(),
		logger.INFO.String(),
		logger.WARN.String(),
		logger.ERROR.String(),
	}
	logLevelFlagUsage = "set the logging level (possible values: " + strings.Join(allLoggerLevels, ", ") + ")"
)

// rootFlags holds the persistent flags shared across the command tree and the
// file logger they configure.
type rootFlags struct {
	logLevel string
	logName  string
	logDir   string
	mode     logger.Mode

	handle *logger.Handle
}

// newRootFlags returns flags whose default values come from config.
func newRootFlags(config *logger.Config) *rootFlags {
	name := config.Name
	if name == "" {
		name = appName
	}

	return &rootFlags{
		logLevel: strings.ToUpper(config.Level),
		logName:  name,
		logDir:   config.Root,
		mode:     config.Mode,
	}
}

// addFlags registers the persistent CLI flags on cmd.
func (f *rootFlags) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.logLevel, logLevelFlagName, logLevelShortFlagName, f.logLevel, heredoc.Doc(logLevelFlagUsage))
	flags.StringVar(&f.logName, logNameFlagName, f.logName, logNameFlagUsage)
	flags.StringVar(&f.logDir, logDirFlagName, f.logDir, logDirFlagUsage)
	flags.Var(&f.mode, modeFlagName, heredoc.Doc(modeFlagUsage))
}

// initLogger starts the file logger and stores it in the command context.
func (f *rootFlags) initLogger(cmd *cobra.Command) error {
	handle, err := logger.New(logger.Options{
		Name:    f.logName,
		Level:   f.logLevel,
		Mode:    f.mode,
		Root:    f.logDir,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	f.handle = handle
	cmd.SetContext(logger.WithContext(cmd.Context(), handle))
	return nil
}

// closeLogger flushes and closes the file logger, if one was started.
func (f *rootFlags) closeLogger() error {
	if f.handle == nil {
		return nil
	}
	return f.handle.Close()
}

func main() {
	log := logger.NewLogger(os.Stderr)
	ctx := logger.WithContext(context.Background(), log)

	config, err := logger.LoadConfig(envPrefix)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	flags := newRootFlags(config)
	cmd := rootCmd(flags)

	exitCode := 0
	if err := cmd.ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	if err := flags.closeLogger(); err != nil {
		log.Error("closing log files", "error", err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

// rootCmd constructs the root Cobra command with shared configuration.
func rootCmd(flag *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.FromContext(cmd.Context())
			log.SetLevel(logger.LevelFromString(flag.logLevel))

			if cmd.Name() == versionCmdName {
				return nil
			}

			if err := flag.initLogger(cmd); err != nil {
				cmd.PrintErrln(err)
				return err
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return flag.closeLogger()
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(err)
		_ = c.Usage()
		return err
	})

	flag.addFlags(cmd)
	cmd.AddCommand(
		internalcmd.GetCmd(),
		internalcmd.PostCmd(),
		internalcmd.ServeCmd(),
		versionCmd(),
	)

	return cmd
}

// versionCmd constructs the Cobra command that prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: heredoc.Doc(versionShort),

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}

			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(Version, BuildDate, runtime.Version()))
		},
	}
}

// versionString formats the version metadata for display.
func versionString(version, buildDate, runtimeVersion string) string {
	outputString := version
	if buildDate != "" {
		outputString += " (" + buildDate + ")"
	}

	return outputString + ", Go Version: " + runtimeVersion
}
