// Package resmgr injects scripts and stylesheets into a page on demand,
// loading each URL at most once.
//
// # Quick Start
//
// Open a page, install a manager on it, and load a plugin:
//
//	browser := resmgr.NewBrowser()
//	defer browser.Close()
//
//	page, err := browser.Open(ctx, "https://example.test/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer page.Close()
//
//	rm, err := resmgr.Install(page, resmgr.WithLogger(resmgr.NewConsoleLogger(os.Stderr)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = rm.LoadPlugin(resmgr.Plugin{
//	    CSS: []string{"/charts.css"},
//	    JS:  []string{"/vendor.js", "/charts.js"},
//	}).Err()
//
// # Load States
//
// Every URL has a record in its kind's registry (scripts or stylesheets):
//
//  1. pending: an element was injected and its load event is awaited
//  2. fulfilled: the element loaded, or was already on the page at startup
//  3. rejected: the element fired an error and was removed
//
// A fulfilled URL is never injected again. A pending URL hands every new
// caller the same Signal. A rejected URL is retried by the next request.
//
// # Signals
//
// Loads return a *Signal, a completion handle that settles exactly once.
// Block on it with Wait or Err, or chain work with Subscribe:
//
//	res, err := rm.LoadScript("/app.js").Wait(ctx)
//
// # Batches
//
// Passing several URLs loads them strictly in order, each starting after the
// previous one loaded. A batch stops at the first failure, and stops with a
// log notice after DefaultBatchLimit loads (see WithBatchLimit).
//
// # Documents
//
// A Manager works on any Document. Two ship with the package:
//
//   - Page, a Chrome tab driven through go-rod (NewBrowser, Browser.Open)
//   - StaticDocument, a parsed HTML tree (ParseHTMLDocument)
//
// Install keeps one Manager per Document and scans the document for scripts
// and stylesheets already present once it is ready.
//
// # Browser Requirements
//
// Page requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package resmgr
