// Package check validates spec reference files: it reconciles a
// YAML-declared checklist of specification items against the full item
// history and verifies that declared source pointers resolve.
package check

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jtraglia/ethspecify/internal/spec"
)

// SpecRef is one entry of a checked YAML file.
type SpecRef struct {
	// Name is a legacy label used when no rendered tag is present.
	Name string
	// Spec is free text expected to contain a rendered spec tag.
	Spec string
	// Sources point at supporting code locations. HasSources records
	// whether the key was present at all: entries without a sources key
	// are skipped, entries with an empty list are flagged.
	Sources    []SourceRef
	HasSources bool
}

// UnmarshalYAML decodes an entry while distinguishing a missing sources
// key from an empty one.
func (r *SpecRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch key.Value {
		case "name":
			if err := val.Decode(&r.Name); err != nil {
				return err
			}
		case "spec":
			if val.Kind == yaml.ScalarNode {
				if err := val.Decode(&r.Spec); err != nil {
					return err
				}
			}
		case "sources":
			r.HasSources = true
			if val.Kind == yaml.SequenceNode {
				if err := val.Decode(&r.Sources); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// SourceRef points at a file, optionally narrowed to a line range (via a
// #Lstart or #Lstart-Lend suffix on the file) and a search string.
type SourceRef struct {
	File   string    `yaml:"file"`
	Search string    `yaml:"search"`
	Regex  RegexSpec `yaml:"regex"`
}

// RegexSpec is the regex field of a source pointer. It accepts a
// pattern string, or a boolean that reinterprets the search string as a
// pattern.
type RegexSpec struct {
	Pattern string
	Enabled bool
}

// UnmarshalYAML accepts either form.
func (r *RegexSpec) UnmarshalYAML(value *yaml.Node) error {
	var enabled bool
	if err := value.Decode(&enabled); err == nil {
		r.Enabled = enabled
		return nil
	}
	if err := value.Decode(&r.Pattern); err != nil {
		return fmt.Errorf("regex must be a pattern or a boolean: %w", err)
	}
	r.Enabled = r.Pattern != ""
	return nil
}

// pattern returns the effective regex pattern, or "" for a literal
// search.
func (r RegexSpec) pattern(search string) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if r.Enabled {
		return search
	}
	return ""
}

// loadSpecRefs parses a checked YAML file, accepting both a sequence of
// entries and a single entry.
func loadSpecRefs(path string) ([]SpecRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parsing error in %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var refs []SpecRef
		if err := root.Decode(&refs); err != nil {
			return nil, fmt.Errorf("YAML parsing error in %s: %w", path, err)
		}
		return refs, nil
	case yaml.MappingNode:
		var ref SpecRef
		if err := root.Decode(&ref); err != nil {
			return nil, fmt.Errorf("YAML parsing error in %s: %w", path, err)
		}
		return []SpecRef{ref}, nil
	default:
		return nil, nil
	}
}

// categoryPrefix maps a selector to the prefix used in report lines,
// e.g. "functions.process_attestation#electra".
var categoryPrefix = map[string]string{
	"fn":           "functions",
	"function":     "functions",
	"constant_var": "constants",
	"config_var":   "configs",
	"preset_var":   "presets",
	"ssz_object":   "ssz_objects",
	"dataclass":    "dataclasses",
	"custom_type":  "custom_types",
}

var openingTagPattern = regexp.MustCompile(`<spec\s+[^>]+>`)

// tagRef is a (selector, name, fork) triple recovered from a rendered
// tag. Selector is normalized: "function" becomes "fn".
type tagRef struct {
	Selector string
	Name     string
	Fork     string
}

// Pair renders the item#fork form used for coverage bookkeeping.
func (t tagRef) Pair() string {
	return t.Name + "#" + t.Fork
}

// Ref renders the fully qualified report form.
func (t tagRef) Ref() string {
	return categoryPrefix[t.Selector] + "." + t.Name + "#" + t.Fork
}

// extractTagRef recovers the selector/name/fork triple from the first
// rendered tag found in free text. Tags without a selector or fork are
// ignored.
func extractTagRef(text string) (tagRef, bool) {
	for _, opening := range openingTagPattern.FindAllString(text, -1) {
		attrs := spec.ExtractAttributes(opening)
		ref, ok := tagRefFromAttributes(attrs)
		if ok {
			return ref, true
		}
	}
	return tagRef{}, false
}

// extractTagRefs recovers every triple from the entries of a checked
// file, keyed by normalized selector.
func extractTagRefs(refs []SpecRef) map[string][]tagRef {
	byType := make(map[string][]tagRef)
	for _, ref := range refs {
		if ref.Spec == "" {
			continue
		}
		for _, opening := range openingTagPattern.FindAllString(ref.Spec, -1) {
			attrs := spec.ExtractAttributes(opening)
			if tr, ok := tagRefFromAttributes(attrs); ok {
				byType[tr.Selector] = append(byType[tr.Selector], tr)
			}
		}
	}
	return byType
}

func tagRefFromAttributes(attrs spec.Attributes) (tagRef, bool) {
	fork, ok := attrs.Get("fork")
	if !ok {
		return tagRef{}, false
	}
	for _, selector := range spec.SelectorAttributes {
		name, ok := attrs.Get(selector)
		if !ok {
			continue
		}
		if selector == "function" {
			selector = "fn"
		}
		return tagRef{Selector: selector, Name: name, Fork: fork}, true
	}
	return tagRef{}, false
}

// isExcepted reports whether an item is exempt from coverage, either for
// one fork ("name#fork") or for all forks ("name").
func isExcepted(name, fork string, exceptions []string) bool {
	for _, e := range exceptions {
		if e == name || e == name+"#"+fork {
			return true
		}
	}
	return false
}

// exceptionKeyAliases maps each selector to the config keys that may
// carry its exception list, in lookup order.
var exceptionKeyAliases = map[string][]string{
	"fn":           {"functions", "fn"},
	"constant_var": {"constants", "constant_variables", "constant_var"},
	"config_var":   {"configs", "config_variables", "config_var"},
	"preset_var":   {"presets", "preset_variables", "preset_var"},
	"ssz_object":   {"ssz_objects", "ssz_object"},
	"dataclass":    {"dataclasses", "dataclass"},
	"custom_type":  {"custom_types", "custom_type"},
}

// exceptionsFor returns the exception list configured for a selector.
func exceptionsFor(selector string, exceptions map[string][]string) []string {
	for _, key := range exceptionKeyAliases[selector] {
		if list, ok := exceptions[key]; ok {
			return list
		}
	}
	return nil
}

// presetFor infers the preset a checked file covers from its name.
func presetFor(filename string) string {
	if strings.Contains(strings.ToLower(filename), "minimal") {
		return "minimal"
	}
	return spec.DefaultPreset
}
