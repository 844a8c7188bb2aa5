// Package spec implements the specification index, tag parsing, item
// resolution, rendering, and in-place document rewriting for <spec> tags.
package spec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Item categories as they appear in the pyspec index.
const (
	CategoryFunctions    = "functions"
	CategoryConstantVars = "constant_vars"
	CategoryPresetVars   = "preset_vars"
	CategoryConfigVars   = "config_vars"
	CategoryCustomTypes  = "custom_types"
	CategorySSZObjects   = "ssz_objects"
	CategoryDataclasses  = "dataclasses"
)

// Categories lists every known item category.
var Categories = []string{
	CategoryFunctions,
	CategoryConstantVars,
	CategoryPresetVars,
	CategoryConfigVars,
	CategoryCustomTypes,
	CategorySSZObjects,
	CategoryDataclasses,
}

// DefaultPreset is used when a tag does not carry a preset attribute.
const DefaultPreset = "mainnet"

// GenesisFork is the fixed first fork of every preset.
const GenesisFork = "phase0"

// Item is a single specification entry. Variable categories carry an
// optional type annotation alongside the value; other categories are
// plain bodies.
type Item struct {
	Type *string
	Body string
}

// UnmarshalJSON accepts either a plain string body or a two-element
// [type, value] array where type may be null.
func (it *Item) UnmarshalJSON(data []byte) error {
	var body string
	if err := json.Unmarshal(data, &body); err == nil {
		it.Type = nil
		it.Body = body
		return nil
	}

	var pair []*string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("spec item must be a string or [type, value] pair: %w", err)
	}
	if len(pair) != 2 || pair[1] == nil {
		return fmt.Errorf("spec item pair must have exactly two elements with a non-null value")
	}
	it.Type = pair[0]
	it.Body = *pair[1]
	return nil
}

// Equal reports whether two items have the same type annotation and body.
func (it Item) Equal(other Item) bool {
	if (it.Type == nil) != (other.Type == nil) {
		return false
	}
	if it.Type != nil && *it.Type != *other.Type {
		return false
	}
	return it.Body == other.Body
}

// ForkData maps category name to the items defined in that category.
type ForkData map[string]map[string]Item

// PresetData maps fork name to that fork's items.
type PresetData map[string]ForkData

// Index is the full specification index: preset, fork, category, item.
// It is fetched once per version and treated as read-only.
type Index map[string]PresetData

// Item looks up a single entry. Every miss is an error; misses are never
// suppressed.
func (idx Index) Item(preset, fork, category, name string) (Item, error) {
	presetData, ok := idx[preset]
	if !ok {
		return Item{}, fmt.Errorf("unknown preset %q", preset)
	}
	forkData, ok := presetData[fork]
	if !ok {
		return Item{}, fmt.Errorf("unknown fork %q in preset %q", fork, preset)
	}
	items, ok := forkData[category]
	if !ok {
		return Item{}, fmt.Errorf("no %s in fork %q (%s preset)", category, fork, preset)
	}
	item, ok := items[name]
	if !ok {
		return Item{}, fmt.Errorf("unknown %s item %q in fork %q (%s preset)", category, name, fork, preset)
	}
	return item, nil
}

// Presets returns the preset names in sorted order.
func (idx Index) Presets() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Forks returns the non-experimental forks of a preset in chronological
// order: the genesis fork first, the rest alphabetically. Experimental
// ("eip*") forks are excluded.
func (idx Index) Forks(preset string) ([]string, error) {
	presetData, ok := idx[preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	var forks []string
	for fork := range presetData {
		if strings.HasPrefix(fork, "eip") {
			continue
		}
		forks = append(forks, fork)
	}
	sort.Slice(forks, func(i, j int) bool {
		if (forks[i] == GenesisFork) != (forks[j] == GenesisFork) {
			return forks[i] == GenesisFork
		}
		return forks[i] < forks[j]
	})
	return forks, nil
}

// LatestFork returns the most recent non-experimental fork of the default
// preset, or the genesis fork when none exist.
func (idx Index) LatestFork() string {
	forks, err := idx.Forks(DefaultPreset)
	if err != nil || len(forks) == 0 {
		return GenesisFork
	}
	return forks[len(forks)-1]
}

// PreviousForks returns the forks preceding the given fork, most recent
// first, with the genesis fork always last. The list is derived from the
// *_FORK_VERSION config vars of the default preset: the fork's own key
// and the genesis sentinel are dropped, as are experimental forks.
func (idx Index) PreviousForks(fork string) ([]string, error) {
	configVars, err := idx.forkConfigVars(fork)
	if err != nil {
		return nil, err
	}

	ownKey := strings.ToUpper(fork) + "_FORK_VERSION"
	var names []string
	for key := range configVars {
		if !strings.HasSuffix(key, "_FORK_VERSION") {
			continue
		}
		if key == ownKey || key == "GENESIS_FORK_VERSION" {
			continue
		}
		name := strings.ToLower(key[:strings.Index(key, "_")])
		if strings.HasPrefix(name, "eip") {
			continue
		}
		names = append(names, name)
	}
	// Named forks sort alphabetically into chronological order.
	sort.Strings(names)

	previous := make([]string, 0, len(names)+1)
	for i := len(names) - 1; i >= 0; i-- {
		previous = append(previous, names[i])
	}
	return append(previous, GenesisFork), nil
}

func (idx Index) forkConfigVars(fork string) (map[string]Item, error) {
	presetData, ok := idx[DefaultPreset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", DefaultPreset)
	}
	forkData, ok := presetData[fork]
	if !ok {
		return nil, fmt.Errorf("unknown fork %q in preset %q", fork, DefaultPreset)
	}
	return forkData[CategoryConfigVars], nil
}

// History records, per category and item name, the forks at which the
// item first appeared or changed content.
type History map[string]map[string][]string

// ItemHistory traces every item of a preset across forks in
// chronological order. A fork is recorded when the item first appears or
// when its content differs from the preceding fork that contains it.
func (idx Index) ItemHistory(preset string) (History, error) {
	forks, err := idx.Forks(preset)
	if err != nil {
		return nil, err
	}

	history := make(History, len(Categories))
	for _, category := range Categories {
		names := make(map[string]bool)
		for _, fork := range forks {
			for name := range idx[preset][fork][category] {
				names[name] = true
			}
		}

		history[category] = make(map[string][]string, len(names))
		for name := range names {
			var trace []string
			var previous *Item
			for _, fork := range forks {
				item, ok := idx[preset][fork][category][name]
				if !ok {
					continue
				}
				if previous == nil || !item.Equal(*previous) {
					trace = append(trace, fork)
				}
				prev := item
				previous = &prev
			}
			if len(trace) > 0 {
				history[category][name] = trace
			}
		}
	}
	return history, nil
}

// ChangeStatus marks an item as newly introduced or modified in a fork.
type ChangeStatus string

const (
	ChangeNew      ChangeStatus = "new"
	ChangeModified ChangeStatus = "modified"
)

// ItemChanges compares every item of the given fork against previous
// forks. Items introduced in this fork are marked new, items whose
// content differs from the nearest previous fork containing them are
// marked modified; unchanged items are omitted.
func (idx Index) ItemChanges(preset, fork string) (map[string]map[string]ChangeStatus, error) {
	presetData, ok := idx[preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	forkData, ok := presetData[fork]
	if !ok {
		return nil, fmt.Errorf("fork %q not found in %s preset", fork, preset)
	}
	previousForks, err := idx.PreviousForks(fork)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]map[string]ChangeStatus, len(Categories))
	for _, category := range Categories {
		changes[category] = make(map[string]ChangeStatus)
		for name, item := range forkData[category] {
			status, found := idx.itemStatus(preset, category, name, item, previousForks)
			if found {
				changes[category][name] = status
			}
		}
	}
	return changes, nil
}

// itemStatus walks previous forks (most recent first) and classifies the
// item against the nearest fork that contains it.
func (idx Index) itemStatus(preset, category, name string, current Item, previousForks []string) (ChangeStatus, bool) {
	for _, prevFork := range previousForks {
		prev, ok := idx[preset][prevFork][category][name]
		if !ok {
			continue
		}
		if !prev.Equal(current) {
			return ChangeModified, true
		}
		return "", false
	}
	return ChangeNew, true
}
