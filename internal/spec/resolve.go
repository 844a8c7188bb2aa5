package spec

import (
	"fmt"
	"strconv"
	"strings"
)

// selectorCategory maps selector attributes to index categories.
var selectorCategory = map[string]string{
	"function":     CategoryFunctions,
	"fn":           CategoryFunctions,
	"constant_var": CategoryConstantVars,
	"preset_var":   CategoryPresetVars,
	"config_var":   CategoryConfigVars,
	"custom_type":  CategoryCustomTypes,
	"ssz_object":   CategorySSZObjects,
	"dataclass":    CategoryDataclasses,
}

// CategoryForSelector returns the index category a selector attribute
// refers to.
func CategoryForSelector(selector string) (string, bool) {
	category, ok := selectorCategory[selector]
	return category, ok
}

// Resolve looks up the item a tag refers to and returns its canonical
// text. This text is what gets hashed, independent of the requested
// rendering style.
func Resolve(attrs Attributes, idx Index, preset, fork string) (string, error) {
	selector, name, err := attrs.Selector()
	if err != nil {
		return "", err
	}
	category := selectorCategory[selector]

	item, err := idx.Item(preset, fork, category, name)
	if err != nil {
		return "", err
	}

	switch category {
	case CategoryFunctions:
		return resolveFunction(name, item.Body, attrs)
	case CategoryConstantVars, CategoryPresetVars, CategoryConfigVars:
		if item.Type != nil {
			return fmt.Sprintf("%s: %s = %s", name, *item.Type, item.Body), nil
		}
		return fmt.Sprintf("%s = %s", name, item.Body), nil
	case CategoryCustomTypes:
		return fmt.Sprintf("%s = %s", name, item.Body), nil
	case CategoryDataclasses:
		return strings.TrimPrefix(item.Body, "@dataclass\n"), nil
	default:
		return item.Body, nil
	}
}

// resolveFunction applies the optional 1-indexed lines slice to a
// function body and dedents the selection.
func resolveFunction(name, body string, attrs Attributes) (string, error) {
	linesAttr, ok := attrs.Get("lines")
	if !ok {
		return body, nil
	}

	bodyLines := strings.Split(body, "\n")
	start, end, err := parseLineRange(linesAttr, len(bodyLines))
	if err != nil {
		return "", fmt.Errorf("invalid lines range for %s: %w", name, err)
	}
	if start > end {
		return "", fmt.Errorf("invalid lines range for %s: (%d, %d)", name, start, end)
	}
	return dedent(strings.Join(bodyLines[start-1:end], "\n")), nil
}

// parseLineRange parses "start" or "start-end", clamping both bounds
// into [1, lineCount].
func parseLineRange(s string, lineCount int) (int, int, error) {
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 1:
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("%q", s)
		}
		start := clamp(n, 1, lineCount)
		return start, start, nil
	case 2:
		a, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("%q", s)
		}
		b, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("%q", s)
		}
		return clamp(a, 1, lineCount), clamp(b, 1, lineCount), nil
	default:
		return 0, 0, fmt.Errorf("%q", s)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// dedent strips the leading whitespace shared by all non-blank lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")

	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin = indent
			first = false
			continue
		}
		margin = commonPrefix(margin, indent)
	}
	if margin == "" {
		return s
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
