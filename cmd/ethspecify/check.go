package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jtraglia/ethspecify/internal/check"
	"github.com/jtraglia/ethspecify/internal/config"
	"github.com/jtraglia/ethspecify/internal/output"
	"github.com/jtraglia/ethspecify/internal/spec"
)

func newCheckCmd() *cobra.Command {
	var (
		path   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate specification reference files",
		Long: `Check validates the specrefs YAML files configured in .ethspecify.yml:
every source pointer must resolve unambiguously, and every
specification item must be referenced once per fork it appeared or
changed in, unless excepted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path, os.Stderr)
			if err != nil {
				return err
			}

			formatter, err := formatterFor(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			checker := check.New(spec.NewClient(), path, cfg)
			report, err := checker.Run(ctx)
			if err != nil {
				return err
			}

			out, err := formatter.Format(report)
			if err != nil {
				return err
			}
			os.Stdout.Write(out)

			if !report.Success() {
				return errors.New("specification reference check failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "directory containing the specrefs files")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text or json)")
	return cmd
}

func formatterFor(format string) (output.Formatter, error) {
	switch format {
	case "text":
		return output.NewTextFormatter(), nil
	case "json":
		return output.NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (expected text or json)", format)
	}
}
