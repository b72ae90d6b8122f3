// Package app wires the dataset cleaner together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from YAML and environment (config.Load)
//	2. Initialize the structured logger and OpenTelemetry providers
//	3. Create the session store, its cron sweeper and the report generator
//	4. Build the dataset and health services
//	5. Set up the chi router, middleware chain and handlers
//	6. Create the HTTP server
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests build an Application with New(config.Default(), logger) and drive
// a.Router through httptest, or call Serve with their own listener.
//
// # Graceful Shutdown
//
// Run stops on SIGINT or SIGTERM. Shutdown drains in-flight requests, stops
// the session sweeper and flushes telemetry, bounded by
// Server.ShutdownTimeout. Errors are returned to the caller; the package never
// calls os.Exit.
package app
