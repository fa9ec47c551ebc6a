package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navintent/pkg/deeplink"
)

func resolveCmd() *cobra.Command {
	var (
		cf         configFlags
		asJSON     bool
		segmentIDs bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [url...]",
		Short: "Resolve URLs to in-app routes",
		Long: `Resolve URLs to in-app routes.

Each argument is resolved and its route printed on its own line. With no
arguments, URLs are read from standard input, one per line.

Examples:
  navintent resolve https://shop.example.com/en/products/55
  navintent resolve --json /categories/12 /brands/nike
  cat links.txt | navintent resolve --segment-ids`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd.Context())
			if err != nil {
				return err
			}

			var extra []deeplink.Option
			if segmentIDs {
				extra = append(extra, deeplink.WithIdentifierMode(deeplink.IdentifierSegment))
			}
			resolver, err := cfg.NewResolver(extra...)
			if err != nil {
				return err
			}

			return runResolve(cmd.InOrStdin(), cmd.OutOrStdout(), resolver, args, asJSON)
		},
	}

	cf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON intent per line")
	cmd.Flags().BoolVar(&segmentIDs, "segment-ids", false, "Cut identifiers at the next '/', '?' or '#'")

	return cmd
}

func runResolve(in io.Reader, out io.Writer, resolver *deeplink.Resolver, args []string, asJSON bool) error {
	emit := func(raw string) error {
		intent := resolver.ResolveIntent(raw)
		if !asJSON {
			_, err := fmt.Fprintln(out, intent.Route)
			return err
		}
		data, err := json.Marshal(intent)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}

	if len(args) > 0 {
		for _, raw := range args {
			if err := emit(raw); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if err := emit(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
