package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	resmgr "github.com/alnah/go-resmgr"
	"github.com/alnah/go-resmgr/internal/config"
	"github.com/alnah/go-resmgr/internal/fileutil"
	"github.com/alnah/go-resmgr/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoPages            = errors.New("no pages specified")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrInvalidLogFormat   = errors.New("invalid log option")
	ErrOutputNeedsStatic  = errors.New("--output requires --static")
)

// maxWorkers bounds --workers; each Chrome worker is a browser process.
const maxWorkers = 32

// pageJob is one page and what to load into it.
type pageJob struct {
	URL     string
	Plugins []resmgr.Plugin
	CSS     []string
	JS      []string
	Output  string // Static mode only
}

// pageResult holds the outcome of loading one page.
type pageResult struct {
	URL      string
	Output   string
	Scripts  int // fulfilled scripts on the page, preexisting included
	CSS      int // fulfilled stylesheets on the page, preexisting included
	Err      error
	Duration time.Duration
}

// loadParams groups parameters shared across pages.
type loadParams struct {
	logger     func(page string) resmgr.Logger
	batchLimit int
	now        func() time.Time
}

// runLoad orchestrates loading resources into every page.
func runLoad(ctx context.Context, args []string, flags *loadFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	// Load configuration: --config wins over RESMGR_CONFIG
	cfg := config.DefaultConfig()
	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		loaded, err := config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if flags.output != "" && !flags.static.enabled {
		return ErrOutputNeedsStatic
	}

	jobs, err := buildJobs(args, flags, cfg)
	if err != nil {
		return err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	logger, syncLogs := newLoggerFactory(cfg, flags.common.quiet, env)
	defer syncLogs()

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	size := min(resolvePoolSize(workers), len(jobs))
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", size)
	}

	opts := sessionOptions{
		static:     flags.static.enabled,
		base:       flags.static.base,
		timeout:    timeout,
		browserBin: cfg.Browser.Bin,
		noSandbox:  cfg.Browser.NoSandbox,
	}
	factory := env.NewSession
	if factory == nil {
		factory = newSession
	}
	pool := NewSessionPool(size, func() Session { return factory(opts) })
	defer pool.Close()

	params := &loadParams{
		logger:     logger,
		batchLimit: cfg.BatchLimit,
		now:        env.Now,
	}

	results := loadBatch(ctx, pool, jobs, params)

	failed, firstErr := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d page(s) failed: %w", failed, len(results), firstErr)
	}
	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *loadFlags, cfg *config.Config) error {
	if flags.timeout != "" {
		d, err := time.ParseDuration(flags.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q (use e.g. 30s, 2m)", ErrInvalidTimeout, flags.timeout)
		}
		cfg.Browser.Timeout = flags.timeout
	}

	if flags.log.format != "" {
		switch f := strings.ToLower(flags.log.format); f {
		case "console", "json":
			cfg.Log.Format = f
		default:
			return fmt.Errorf("%w: --log-format %q (must be console or json)", ErrInvalidLogFormat, flags.log.format)
		}
	}
	if flags.log.color != "" {
		switch c := strings.ToLower(flags.log.color); c {
		case config.ColorAuto, config.ColorAlways, config.ColorNever:
			cfg.Log.Color = c
		default:
			return fmt.Errorf("%w: --color %q (must be auto, always, or never)", ErrInvalidLogFormat, flags.log.color)
		}
	}

	if flags.batchLimit != 0 {
		cfg.BatchLimit = flags.batchLimit
	}
	if flags.noSandbox {
		cfg.Browser.NoSandbox = true
	}
	return nil
}

// validateWorkers checks that the worker count is within bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, n)
	}
	if n > maxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, maxWorkers)
	}
	return nil
}

// buildJobs resolves the pages to load. Positional pages win over the
// config's pages. Flag resources are added to every page after its own.
func buildJobs(args []string, flags *loadFlags, cfg *config.Config) ([]pageJob, error) {
	flagPlugins, err := resolvePlugins(flags.resources.plugins, cfg)
	if err != nil {
		return nil, err
	}

	var jobs []pageJob
	if len(args) > 0 {
		for _, page := range args {
			jobs = append(jobs, pageJob{
				URL:     page,
				Plugins: flagPlugins,
				CSS:     flags.resources.css,
				JS:      flags.resources.js,
			})
		}
	} else {
		for _, pg := range cfg.Pages {
			plugins, err := resolvePlugins(pg.Plugins, cfg)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, pageJob{
				URL:     pg.URL,
				Plugins: append(plugins, flagPlugins...),
				CSS:     slices.Concat([]string(pg.CSS), flags.resources.css),
				JS:      slices.Concat([]string(pg.JS), flags.resources.js),
				Output:  pg.Output,
			})
		}
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: pass page URLs or define pages in the config", ErrNoPages)
	}

	if flags.static.enabled && flags.output != "" {
		for i := range jobs {
			if jobs[i].Output != "" {
				continue
			}
			if len(jobs) == 1 {
				jobs[i].Output = flags.output
			} else {
				jobs[i].Output = filepath.Join(flags.output, outputName(jobs[i].URL))
			}
		}
	}
	if !flags.static.enabled {
		for i := range jobs {
			jobs[i].Output = ""
		}
	}

	return jobs, nil
}

// resolvePlugins maps plugin names to their resources.
func resolvePlugins(names []string, cfg *config.Config) ([]resmgr.Plugin, error) {
	if len(names) == 0 {
		return nil, nil
	}

	plugins := make([]resmgr.Plugin, 0, len(names))
	for _, name := range names {
		p, ok := cfg.Plugin(name)
		if !ok {
			available := make([]string, 0, len(cfg.Plugins))
			for _, known := range cfg.Plugins {
				available = append(available, known.Name)
			}
			return nil, fmt.Errorf("%w: %q%s", config.ErrUnknownPlugin, name, hints.ForPluginNotFound(available))
		}
		plugins = append(plugins, resmgr.Plugin{Name: p.Name, CSS: p.CSS, JS: p.JS})
	}
	return plugins, nil
}

// outputName derives an HTML file name from a page URL or path.
func outputName(page string) string {
	name := filepath.Base(page)
	if fileutil.IsURL(page) {
		name = "index.html"
		if u, err := url.Parse(page); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				name = base
			}
		}
	}
	if filepath.Ext(name) == "" {
		name += ".html"
	}
	return name
}

// newLoggerFactory returns a per-page logger constructor and a flush function.
func newLoggerFactory(cfg *config.Config, quiet bool, env *Environment) (func(page string) resmgr.Logger, func()) {
	if quiet {
		return func(string) resmgr.Logger { return resmgr.NopLogger() }, func() {}
	}

	if cfg.JSONLogs() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(zapcore.AddSync(env.Stderr)),
			zapcore.InfoLevel,
		)
		z := zap.New(core)
		return func(page string) resmgr.Logger {
			return resmgr.NewZapLogger(z.With(zap.String("page", page)))
		}, func() { _ = z.Sync() }
	}

	color := false
	switch cfg.ColorMode() {
	case config.ColorAlways:
		color = true
	case config.ColorAuto:
		color = env.IsTerminal != nil && env.IsTerminal(env.Stderr)
	}
	console := resmgr.NewConsoleLogger(env.Stderr, resmgr.WithColor(color), resmgr.WithClock(env.Now))
	return func(string) resmgr.Logger { return console }, func() {}
}

// loadBatch processes pages concurrently, one session per running page.
func loadBatch(ctx context.Context, pool Pool, jobs []pageJob, params *loadParams) []pageResult {
	if len(jobs) == 0 {
		return nil
	}

	results := make([]pageResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(pool.Size())
	for i := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = pageResult{URL: jobs[i].URL, Err: err}
				return nil
			}

			s := pool.Acquire()
			defer pool.Release(s)

			results[i] = loadPage(ctx, s, jobs[i], params)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// loadPage opens one page, installs a Manager, and loads plugins, then
// stylesheets, then scripts.
func loadPage(ctx context.Context, s Session, job pageJob, params *loadParams) (result pageResult) {
	start := params.now()
	result = pageResult{URL: job.URL, Output: job.Output}
	defer func() { result.Duration = params.now().Sub(start) }()

	target, err := s.Open(ctx, job.URL)
	if err != nil {
		result.Err = err
		return result
	}
	defer target.Close()

	opts := []resmgr.Option{resmgr.WithLogger(params.logger(job.URL))}
	if params.batchLimit > 0 {
		opts = append(opts, resmgr.WithBatchLimit(params.batchLimit))
	}
	m, err := resmgr.Install(target, opts...)
	if err != nil {
		result.Err = err
		return result
	}

	if err := loadResources(ctx, m, job); err != nil {
		result.Err = err
		return result
	}

	result.Scripts = countFulfilled(m.Resources(resmgr.KindScript))
	result.CSS = countFulfilled(m.Resources(resmgr.KindCSS))

	if job.Output != "" {
		r, ok := target.(renderer)
		if !ok {
			result.Err = fmt.Errorf("%w: %s: page cannot be rendered", ErrWriteOutput, job.Output)
			return result
		}
		if err := fileutil.WriteFileAtomic(job.Output, r.Render); err != nil {
			result.Err = fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
			return result
		}
	}

	return result
}

// loadResources waits for each plugin, then the CSS batch, then the JS batch.
func loadResources(ctx context.Context, m *resmgr.Manager, job pageJob) error {
	for _, p := range job.Plugins {
		if _, err := m.LoadPlugin(p).Wait(ctx); err != nil {
			return fmt.Errorf("plugin %s: %w", p.Name, err)
		}
	}
	if len(job.CSS) > 0 {
		if _, err := m.LoadCSS(job.CSS...).Wait(ctx); err != nil {
			return err
		}
	}
	if len(job.JS) > 0 {
		if _, err := m.LoadScript(job.JS...).Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func countFulfilled(resources []resmgr.Resource) int {
	n := 0
	for _, r := range resources {
		if r.State == resmgr.StateFulfilled {
			n++
		}
	}
	return n
}

// printResults outputs page results and returns the failure count and the
// first failure.
func printResults(results []pageResult, quiet, verbose bool, env *Environment) (int, error) {
	var succeeded, failed int
	var firstErr error

	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.URL, r.Err, hintFor(r.Err))
			continue
		}

		succeeded++
		if quiet {
			continue
		}

		line := fmt.Sprintf("Loaded %s (%d scripts, %d stylesheets)", r.URL, r.Scripts, r.CSS)
		if r.Output != "" {
			line += " -> " + r.Output
		}
		if verbose {
			line += fmt.Sprintf(" (%v)", r.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(env.Stdout, line)
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed, firstErr
}

// hintFor returns a hint for a per-page failure.
func hintFor(err error) string {
	var loadErr *resmgr.LoadError
	switch {
	case errors.As(err, &loadErr):
		return hints.ForLoadFailed(loadErr.URL)
	case errors.Is(err, resmgr.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, resmgr.ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	default:
		return ""
	}
}
