// Package shutdown coordinates process teardown for booklend-cli.
//
// A Handler collects cleanup hooks (flush metrics, close the store) and
// runs them once in reverse order. WithSignals ties a command's context to
// SIGINT/SIGTERM so Ctrl-C cancels in-flight work:
//
//	ctx, cancel := shutdown.WithSignals(context.Background())
//	defer cancel()
package shutdown
