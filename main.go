package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Leantar/pollwatch/agent"
	"github.com/Leantar/pollwatch/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `Watch files and directories and report changes to a worker.

Usage:
  pollwatch init [-c config] [-d database] [-w worker] [-r] [-checksum algo] [-shell] <paths...>
  pollwatch run [-c config] [-debug]
`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = initConfig(os.Args[2:], os.Stderr)
	case "run":
		err = run(os.Args[2:], os.Stdout, os.Stderr)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Caller().Err(err).Msgf("%s failed", os.Args[1])
	}
}

func initConfig(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("c", "watcher.yaml", "Watcher config file")
	database := fs.String("d", "watcher.db", "Database file to track changes")
	worker := fs.String("w", "echo", "Worker command to call with the modified paths")
	recursive := fs.Bool("r", false, "Recursively check sub-directories for changes")
	checksum := fs.String("checksum", models.ChecksumBlake3, "Checksum algorithm: blake3, xxhash or md5")
	shell := fs.Bool("shell", false, "Run the worker through sh -c with space joined paths")

	// Flags may follow the watched paths
	var paths []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		paths = append(paths, args[0])
		args = args[1:]
	}

	watchList, err := agent.ResolveWatchList(paths)
	if err != nil {
		return err
	}

	db, err := agent.ResolvePath(*database)
	if err != nil {
		return err
	}

	conf := agent.Config{
		Settings: agent.Settings{
			Database:  db,
			Recursive: *recursive,
			Worker:    *worker,
			Checksum:  *checksum,
			Shell:     *shell,
		},
		WatchList: watchList,
	}

	if err := agent.SaveConfig(*configPath, conf); err != nil {
		return err
	}
	log.Info().Str("config", *configPath).Int("watched", len(watchList)).Msg("wrote config")

	return nil
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("c", "watcher.yaml", "Watcher config file")
	debug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	conf, err := agent.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	res, err := agent.New(conf, agent.WithOutput(stdout)).Run()
	if err != nil {
		return err
	}

	if len(res.Failures) > 0 {
		log.Warn().Int("failed", len(res.Failures)).Msg("some paths could not be checked")
	}

	return nil
}
