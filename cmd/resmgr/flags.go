package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// resourceFlags holds what to load into positional pages.
type resourceFlags struct {
	css     []string
	js      []string
	plugins []string
}

// staticFlags holds flags for loading into parsed HTML instead of Chrome.
type staticFlags struct {
	enabled bool
	base    string // Base URL for relative references (empty = page directory)
}

// logFlags holds status line output flags.
type logFlags struct {
	format string // console, json
	color  string // auto, always, never
}

// loadFlags holds all flags for the load command.
type loadFlags struct {
	common     commonFlags
	resources  resourceFlags
	static     staticFlags
	log        logFlags
	output     string
	workers    int
	timeout    string
	batchLimit int
	noSandbox  bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-page timing")
}

// addResourceFlags adds resource selection flags to a FlagSet.
func addResourceFlags(fs *flag.FlagSet, f *resourceFlags) {
	fs.StringSliceVar(&f.css, "css", nil, "stylesheet URL to load (repeatable)")
	fs.StringSliceVar(&f.js, "js", nil, "script URL to load, in order (repeatable)")
	fs.StringSliceVarP(&f.plugins, "plugin", "P", nil, "plugin name from config (repeatable)")
}

// addStaticFlags adds static mode flags to a FlagSet.
func addStaticFlags(fs *flag.FlagSet, f *staticFlags) {
	fs.BoolVar(&f.enabled, "static", false, "load into parsed HTML without Chrome")
	fs.StringVar(&f.base, "base", "", "base URL for relative references in static mode")
}

// addLogFlags adds log output flags to a FlagSet.
func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.StringVar(&f.format, "log-format", "", "status line format: console, json")
	fs.StringVar(&f.color, "color", "", "colour status lines: auto, always, never")
}

// newLoadFlagSet registers every load flag on a new FlagSet bound to f.
// Shared by parseLoadFlags and shell completion.
func newLoadFlagSet(f *loadFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)

	fs.StringVarP(&f.output, "output", "o", "", "write resulting HTML (static mode): file, or directory for several pages")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel pages (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "page and resource timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.batchLimit, "batch-limit", 0, "max loads per batch (0 = config or default)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")

	addCommonFlags(fs, &f.common)
	addResourceFlags(fs, &f.resources)
	addStaticFlags(fs, &f.static)
	addLogFlags(fs, &f.log)

	return fs
}

// parseLoadFlags parses load command flags and returns positional args.
func parseLoadFlags(args []string, usage io.Writer) (*loadFlags, []string, error) {
	f := &loadFlags{}
	fs := newLoadFlagSet(f)
	fs.SetOutput(usage)
	fs.Usage = func() { printLoadUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
