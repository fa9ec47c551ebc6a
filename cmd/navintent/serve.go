package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navintent/internal/errors"
	"github.com/vango-dev/navintent/internal/httpapi"
)

func serveCmd() *cobra.Command {
	var (
		cf        configFlags
		host      string
		port      int
		logFormat string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution HTTP service",
		Long: `Run the resolution HTTP service.

Endpoints:
  GET  /healthz            liveness probe
  GET  /v1/resolve?url=    resolve one URL
  POST /v1/resolve         resolve up to 100 URLs
  GET  /open/*             redirect a web link into the app
  GET  /v1/search/live     debounced live search (WebSocket)
  GET  /metrics            Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  navintent serve
  navintent serve --port=9000 --log-format=json
  navintent serve --config=s3://shop-config/navintent.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), logFormat, logLevel)
			if err != nil {
				return err
			}

			cfg, err := cf.load(cmd.Context())
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts, err := httpapi.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			opts.Logger = logger

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printBanner(out)
			info(out, "listening on http://%s", cfg.Address())
			if cfg.Path() != "" {
				info(out, "config %s", cfg.Path())
			} else {
				warn(out, "no navintent.json found, using defaults")
			}
			fmt.Fprintln(out)

			if err := httpapi.New(opts).Run(ctx, cfg.Address()); err != nil {
				return errors.New("E170").WithDetail("Listening on " + cfg.Address()).Wrap(err)
			}
			success(out, "server stopped")
			return nil
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from navintent.json)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from navintent.json)")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	return cmd
}

// newLogger builds the slog logger selected by the serve flags and installs
// it as the default.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.New("E160").
			WithDetail(fmt.Sprintf("--log-level %q", level)).
			WithSuggestion("Use debug, info, warn or error")
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.New("E160").
			WithDetail(fmt.Sprintf("--log-format %q", format)).
			WithSuggestion("Use text or json")
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
