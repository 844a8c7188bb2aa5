package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jtraglia/ethspecify/internal/config"
	"github.com/jtraglia/ethspecify/internal/spec"
)

// categoryLabel and categorySelector drive the text listing, in the
// index's category order.
var (
	categoryLabel = map[string]string{
		spec.CategoryFunctions:    "Functions",
		spec.CategoryConstantVars: "Constants",
		spec.CategoryPresetVars:   "Preset Variables",
		spec.CategoryConfigVars:   "Config Variables",
		spec.CategoryCustomTypes:  "Custom Types",
		spec.CategorySSZObjects:   "SSZ Objects",
		spec.CategoryDataclasses:  "Dataclasses",
	}
	categorySelector = map[string]string{
		spec.CategoryFunctions:    "fn",
		spec.CategoryConstantVars: "constant_var",
		spec.CategoryPresetVars:   "preset_var",
		spec.CategoryConfigVars:   "config_var",
		spec.CategoryCustomTypes:  "custom_type",
		spec.CategorySSZObjects:   "ssz_object",
		spec.CategoryDataclasses:  "dataclass",
	}
)

func newListTagsCmd() *cobra.Command {
	var (
		preset string
		fork   string
		search string
		format string
	)

	cmd := &cobra.Command{
		Use:   "list-tags",
		Short: "List the spec tags available in the index",
		Long: `List-tags prints every taggable specification item. By default items
are listed with the forks at which they appeared or changed; with
--fork, only the items introduced or modified in that fork are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".", os.Stderr)
			if err != nil {
				return err
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (expected text or json)", format)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			idx, err := spec.NewClient().Index(ctx, cfg.Version)
			if err != nil {
				return err
			}

			if fork != "" {
				return listForkChanges(idx, preset, fork, search, format)
			}
			return listHistory(idx, preset, search, format)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", spec.DefaultPreset, "preset to list tags for")
	cmd.Flags().StringVar(&fork, "fork", "", "only list items introduced or modified in this fork")
	cmd.Flags().StringVar(&search, "search", "", "only list items whose name contains this substring")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text or json)")
	return cmd
}

func listHistory(idx spec.Index, preset, search, format string) error {
	history, err := idx.ItemHistory(preset)
	if err != nil {
		return err
	}
	for category, items := range history {
		history[category] = filterNames(items, search)
	}

	if format == "json" {
		return printJSON(map[string]any{
			"preset":  preset,
			"mode":    "history",
			"history": history,
		})
	}

	fmt.Printf("Available tags across all forks (%s preset):\n", preset)
	for _, category := range spec.Categories {
		items := history[category]
		if len(items) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", categoryLabel[category])
		for _, name := range sortedNames(items) {
			fmt.Printf("  <spec %s=\"%s\" /> (%s)\n",
				categorySelector[category], name, strings.Join(items[name], ", "))
		}
	}
	return nil
}

func listForkChanges(idx spec.Index, preset, fork, search, format string) error {
	changes, err := idx.ItemChanges(preset, fork)
	if err != nil {
		return err
	}
	for category, items := range changes {
		changes[category] = filterNames(items, search)
	}

	if format == "json" {
		return printJSON(map[string]any{
			"preset":  preset,
			"fork":    fork,
			"mode":    "changes",
			"changes": changes,
		})
	}

	fmt.Printf("Tags introduced or modified in %s (%s preset):\n", fork, preset)
	for _, category := range spec.Categories {
		items := changes[category]
		if len(items) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", categoryLabel[category])
		for _, name := range sortedNames(items) {
			fmt.Printf("  <spec %s=\"%s\" fork=\"%s\" /> (%s)\n",
				categorySelector[category], name, fork, items[name])
		}
	}
	return nil
}

func newListForksCmd() *cobra.Command {
	var (
		preset string
		format string
	)

	cmd := &cobra.Command{
		Use:   "list-forks",
		Short: "List the forks of a preset in chronological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".", os.Stderr)
			if err != nil {
				return err
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (expected text or json)", format)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			idx, err := spec.NewClient().Index(ctx, cfg.Version)
			if err != nil {
				return err
			}

			forks, err := idx.Forks(preset)
			if err != nil {
				return fmt.Errorf("unknown preset %q (available: %s)",
					preset, strings.Join(idx.Presets(), ", "))
			}

			if format == "json" {
				return printJSON(map[string]any{"preset": preset, "forks": forks})
			}
			fmt.Print(forkListing(preset, forks))
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", spec.DefaultPreset, "preset to list forks for")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text or json)")
	return cmd
}

func forkListing(preset string, forks []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available forks for %s preset:\n", preset)
	for _, fork := range forks {
		fmt.Fprintf(&b, "  %s\n", fork)
	}
	return b.String()
}

// filterNames keeps the items whose name contains the search term,
// compared case-insensitively.
func filterNames[V any](items map[string]V, search string) map[string]V {
	if search == "" {
		return items
	}
	search = strings.ToLower(search)
	filtered := make(map[string]V)
	for name, v := range items {
		if strings.Contains(strings.ToLower(name), search) {
			filtered[name] = v
		}
	}
	return filtered
}

func sortedNames[V any](items map[string]V) []string {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
