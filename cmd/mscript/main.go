// Command mscript is the thin external collaborator spec.md §6 calls
// for: it does nothing but wire flags to internal/service.Interpreter
// and internal/repl, grounded on the teacher's cmd/app/main.go flag
// wiring but rebuilt as a github.com/spf13/cobra command tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mlog "mscript/internal/log"
	"mscript/internal/repl"
	"mscript/internal/service"
	"mscript/internal/util"
)

var (
	configPath string
	logLevel   string
	logFile    string
	timeLimit  int64
	seed       int64
)

func main() {
	root := &cobra.Command{
		Use:   "mscript [file]",
		Short: "Run or interactively explore an mscript program",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRoot,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "mscript.toml", "path to an optional TOML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (trace/debug/info/warn/error/none)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "override the configured log file (default stderr)")
	root.PersistentFlags().Int64Var(&timeLimit, "time-limit-ms", 0, "override the configured run_until_done time slice, in milliseconds")
	root.PersistentFlags().Int64Var(&seed, "seed", 0, "override the configured random seed")

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run an mscript file to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runFile,
	}
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (util.Configuration, error) {
	cfg, err := util.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if timeLimit != 0 {
		cfg.TimeLimitMS = timeLimit
	}
	if seed != 0 {
		cfg.RandomSeed = seed
	}
	return cfg, nil
}

func initLogging(cfg util.Configuration) {
	file := cfg.LogFile
	if logFile != "" {
		file = logFile
	}
	mlog.InitLogger(cfg.LogLevel, file, cfg.LogColor)
}

// runRoot drops into the REPL with no argument, or runs a file the way
// "run" does when one is given, per spec.md §6's CLI contract.
func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return runFile(cmd, args)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)
	defer mlog.Close()

	interp := service.New(cfg)
	session, err := repl.NewSession(interp, os.Stdout)
	if err != nil {
		return err
	}
	session.Start(os.Stdin)
	return nil
}

func runFile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)
	defer mlog.Close()

	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	interp := service.New(cfg)
	if err := interp.Compile(string(src)); err != nil {
		return err
	}
	_, err = interp.RunUntilDone()
	return err
}
