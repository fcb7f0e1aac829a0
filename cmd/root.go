package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/cjungmann/ate/pkg/action"
	"github.com/cjungmann/ate/pkg/config"
	"github.com/cjungmann/ate/pkg/interp"
	"github.com/cjungmann/ate/pkg/logging"
)

var (
	ConfigPath      string
	LogLevel        string
	ValueName       string
	ArrayName       string
	MaxElements     int
	HistoryFile     string
	InteractiveMode bool
	KeepGoing       bool

	settings = config.Default()
	logger   = log.NewNopLogger()
)

var rootCmd = &cobra.Command{
	Use:   "ate [script...]",
	Short: "Array table extension shell",
	Long: `ate presents a flat array as a table of fixed-size rows and runs
scripts that declare, sort, filter, key and walk such tables.

With script files the scripts run in order. Without arguments commands are
read from stdin, or from an interactive prompt when stdin is a terminal.

Examples:
  ate people.ate
  echo 'ate list_actions' | ate
  ate -i
  ate actions sort
  ate stats data.jsonl -w name,age`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runScripts(newInterp(), args)
		}
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0
		if InteractiveMode || !hasStdin {
			return RunInteractive(newInterp())
		}
		return runScripts(newInterp(), []string{"-"})
	},
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode returns the process status for an error returned by Execute.
func ExitCode(err error) int {
	var exit *interp.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return action.ExitCode(err)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ConfigPath, "config", "", "YAML settings file")
	flags.StringVar(&LogLevel, "log-level", settings.LogLevel, "Log level (debug, info, warn, error, none)")
	flags.StringVar(&ValueName, "value-name", settings.ValueName, "Default variable for scalar results")
	flags.StringVar(&ArrayName, "array-name", settings.ArrayName, "Default variable for array results")
	flags.IntVar(&MaxElements, "max-elements", 0, "Largest array an action may grow (0 for no limit)")
	flags.StringVar(&HistoryFile, "history", "", "Interactive history file")
	flags.BoolVarP(&KeepGoing, "keep-going", "k", false, "Report failing script lines and continue")
	rootCmd.Flags().BoolVarP(&InteractiveMode, "interactive", "i", false, "Interactive REPL mode")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(filterCmd)
}

// loadSettings reads the settings file and applies the flags given on the
// command line over it.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if ConfigPath != "" {
		cfg, err := config.Load(ConfigPath)
		if err != nil {
			return err
		}
		settings = cfg
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		settings.LogLevel = LogLevel
	}
	if flags.Changed("value-name") {
		settings.ValueName = ValueName
	}
	if flags.Changed("array-name") {
		settings.ArrayName = ArrayName
	}
	if flags.Changed("max-elements") {
		settings.MaxElements = MaxElements
	}
	if flags.Changed("history") {
		settings.HistoryFile = HistoryFile
	}
	if flags.Changed("keep-going") {
		settings.KeepGoing = KeepGoing
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	l, err := logging.New(os.Stderr, settings.LogLevel)
	if err != nil {
		return err
	}
	logger = l
	level.Debug(logger).Log("msg", "settings loaded", "config", ConfigPath,
		"value_name", settings.ValueName, "array_name", settings.ArrayName,
		"max_elements", settings.MaxElements, "keep_going", settings.KeepGoing)
	return nil
}

func newInterp() *interp.Interp {
	return interp.New(interp.Options{
		Out:       os.Stdout,
		Err:       os.Stderr,
		Stdin:     os.Stdin,
		Action:    settings.Action(),
		Logger:    logger,
		KeepGoing: settings.KeepGoing,
	})
}

// runScripts runs each script in one interpreter, so later scripts see the
// variables of earlier ones. "-" reads stdin.
func runScripts(in *interp.Interp, paths []string) error {
	for _, path := range paths {
		if path == "-" {
			if err := in.Run(os.Stdin, "<stdin>"); err != nil {
				return err
			}
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		err = in.Run(f, path)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
