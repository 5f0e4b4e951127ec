package agent

import (
	"fmt"
	"github.com/Leantar/pollwatch/modules/store"
	"github.com/Leantar/pollwatch/modules/watcher"
	"github.com/Leantar/pollwatch/modules/worker"
	"github.com/rs/zerolog/log"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Agent struct {
	conf       Config
	out        io.Writer
	detector   *watcher.Detector
	dispatcher *worker.Dispatcher
}

// Result describes one detection pass.
type Result struct {
	// Modified lists changed paths in watch list order, then enumeration order.
	Modified []string
	// Failures holds one error per path that could not be inspected.
	Failures []error

	WorkerExit int
	WorkerErr  error
}

type Option func(*Agent)

// WithOutput sets where the "Modified: <path>" lines are written.
func WithOutput(w io.Writer) Option {
	return func(a *Agent) {
		a.out = w
	}
}

// WithWorkerOutput redirects the worker's stdout and stderr.
func WithWorkerOutput(stdout, stderr io.Writer) Option {
	return func(a *Agent) {
		a.dispatcher = worker.New(a.conf.Settings.Worker,
			worker.WithShell(a.conf.Settings.Shell),
			worker.WithOutput(stdout, stderr),
		)
	}
}

func New(config Config, opts ...Option) *Agent {
	a := &Agent{
		conf:     config,
		out:      os.Stdout,
		detector: watcher.NewDetector(config.Settings.Checksum),
		dispatcher: worker.New(config.Settings.Worker,
			worker.WithShell(config.Settings.Shell),
		),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run performs one detection pass against the configured store and then
// runs the worker. The store is flushed before the worker starts, so a
// failing worker cannot undo recorded changes. Only store failures are
// returned as errors; worker failures are logged and kept in the Result.
func (a *Agent) Run() (Result, error) {
	s, err := store.Open(a.conf.Settings.Database)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open store: %w", err)
	}
	log.Debug().Str("database", a.conf.Settings.Database).Int("entries", s.Len()).Msg("opened store")

	res := a.Scan(s)

	if err := s.Close(); err != nil {
		return res, fmt.Errorf("failed to flush store: %w", err)
	}

	command := strings.TrimSpace(a.conf.Settings.Worker + " " + strings.Join(res.Modified, " "))

	res.WorkerExit, res.WorkerErr = a.dispatcher.Dispatch(res.Modified)
	if res.WorkerErr != nil {
		log.Warn().Err(res.WorkerErr).Str("command", command).Int("exit_code", res.WorkerExit).Msg("failed to run worker")
	} else if res.WorkerExit != 0 {
		log.Warn().Str("command", command).Int("exit_code", res.WorkerExit).Msgf("'%s' returned with exit code: %d", command, res.WorkerExit)
	}

	return res, nil
}

// Scan checks every watched path against s and records the changes in it.
func (a *Agent) Scan(s watcher.Store) Result {
	var res Result

	opts := watcher.EnumerateOptions{
		Recursive: a.conf.Settings.Recursive,
		StoreExt:  store.Ext(a.conf.Settings.Database),
		StoreName: filepath.Base(a.conf.Settings.Database),
	}
	seen := make(map[string]struct{})

	for _, root := range a.conf.WatchList {
		for path, err := range watcher.Enumerate(root, opts) {
			if err != nil {
				log.Error().Caller().Err(err).Str("path", path).Msg("failed to enumerate")
				res.Failures = append(res.Failures, fmt.Errorf("failed to enumerate %s: %w", path, err))
				continue
			}

			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}

			changed, err := a.detector.Detect(s, path)
			if err != nil {
				log.Error().Caller().Err(err).Str("path", path).Msg("failed to detect changes")
				res.Failures = append(res.Failures, err)
				continue
			}

			if changed {
				res.Modified = append(res.Modified, path)
				fmt.Fprintf(a.out, "Modified: %s\n", path)
				log.Debug().Str("path", path).Msg("modified")
			}
		}
	}

	log.Debug().Int("checked", len(seen)).Int("modified", len(res.Modified)).Int("failed", len(res.Failures)).Msg("scan finished")

	return res
}
