package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jtraglia/ethspecify/internal/config"
	"github.com/jtraglia/ethspecify/internal/scan"
	"github.com/jtraglia/ethspecify/internal/spec"
	"github.com/jtraglia/ethspecify/internal/watch"
)

func newProcessCmd() *cobra.Command {
	var (
		path      string
		excludes  []string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Rewrite spec tags in documentation files",
		Long: `Process scans a directory for files containing <spec> tags, resolves
each tag against the specification index, and rewrites the tags in
place with fresh content and integrity hashes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path, os.Stderr)
			if err != nil {
				return err
			}
			client := spec.NewClient()
			processor := spec.NewProcessor(client, spec.Defaults{
				Version: cfg.Version,
				Style:   cfg.Style,
			})
			processor.Log = os.Stdout

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := processAll(ctx, processor, path, excludes); err != nil {
				return err
			}
			if !watchMode {
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s for changes...\n", path)
			w := watch.New(path, excludes, func(ctx context.Context, file string) error {
				fmt.Printf("Processing file: %s\n", file)
				return processor.ProcessFile(ctx, file)
			})
			err = w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "directory to process")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "glob pattern to exclude (repeatable)")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "keep running and re-process files as they change")
	return cmd
}

func processAll(ctx context.Context, processor *spec.Processor, root string, excludes []string) error {
	files, err := scan.Grep(root, spec.TagHintPattern, excludes)
	if err != nil {
		return err
	}
	for _, file := range files {
		fmt.Printf("Processing file: %s\n", file)
		if err := processor.ProcessFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}
