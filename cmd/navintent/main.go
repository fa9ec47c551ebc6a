// Command navintent resolves shop links to in-app routes and serves the
// resolution API.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navintent/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐┌┌─┐┬  ┬┬┌┐┌┌┬┐┌─┐┌┐┌┌┬┐
  │││├─┤└┐┌┘││││ │ ├┤ │││ │
  ┘└┘┴ ┴ └┘ ┴┘└┘ ┴ └─┘┘└┘ ┴
`

func main() {
	os.Exit(execute(newRootCmd(), os.Stderr))
}

// execute runs root and reports a failure on stderr, as JSON when the
// command that failed was asked for JSON output.
func execute(root *cobra.Command, stderr io.Writer) int {
	cmd, err := root.ExecuteC()
	if err == nil {
		return 0
	}
	if wantsJSON(cmd) {
		errors.FprintJSON(stderr, err)
	} else {
		errors.Fprint(stderr, err)
	}
	return 1
}

func wantsJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup("json")
	return f != nil && f.Value.String() == "true"
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "navintent",
		Short: "Resolve shop links to in-app routes",
		Long: `navintent turns shared web links and push payloads into in-app routes.

  • Locale-aware resolution of category, product and brand links
  • Batch and redirect HTTP endpoints
  • Debounced live search over WebSocket
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		resolveCmd(),
		serveCmd(),
		initCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
