package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resmgr <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  load       Load scripts, stylesheets and plugins into pages")
	fmt.Fprintln(w, "  doctor     Check Chrome and environment")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'resmgr help <command>' for details on a specific command.")
}

// printLoadUsage prints usage for the load command.
func printLoadUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resmgr load [flags] <page>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Open each page, inject the requested resources once each, and")
	fmt.Fprintln(w, "report what loaded. Without pages, the config file's pages are used.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  page    URL (Chrome) or HTML file / URL (--static)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Resources:")
	fmt.Fprintln(w, "      --css <url>           Stylesheet to load (repeatable)")
	fmt.Fprintln(w, "      --js <url>            Script to load, in order (repeatable)")
	fmt.Fprintln(w, "  -P, --plugin <name>       Plugin from config: CSS first, then JS")
	fmt.Fprintln(w, "      --batch-limit <n>     Max loads per batch (default 20)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pages:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel pages (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Page and resource timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Static mode:")
	fmt.Fprintln(w, "      --static              Parse HTML instead of driving Chrome")
	fmt.Fprintln(w, "      --base <url>          Resolve relative references against a URL")
	fmt.Fprintln(w, "  -o, --output <path>       Write resulting HTML (directory for several pages)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --log-format <s>      Status lines: console, json")
	fmt.Fprintln(w, "      --color <s>           Colour: auto, always, never")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-page timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  RESMGR_CONFIG, RESMGR_TIMEOUT, RESMGR_WORKERS, RESMGR_LOG_FORMAT")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN, ROD_NO_SANDBOX")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "load":
		printLoadUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: resmgr version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: resmgr help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resmgr doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome can be found and launched, that the config named by")
	fmt.Fprintln(w, "RESMGR_CONFIG is valid, and that output can be written.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json    Output as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  RESMGR_CONFIG, RESMGR_CONTAINER, ROD_BROWSER_BIN, ROD_NO_SANDBOX")
}
