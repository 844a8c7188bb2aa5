package spec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Rendering styles.
const (
	StyleHash = "hash"
	StyleFull = "full"
	StyleDiff = "diff"
	StyleLink = "link"
)

// Placeholders returned by link-style rendering, verbatim in documents.
const (
	linkNotFound      = "Could not find link"
	linkNotApplicable = "Not available for this type of spec"
)

// ErrNoPreviousSpec is returned by diff rendering when every previous
// fork holds content identical to the current fork.
var ErrNoPreviousSpec = errors.New("there is no previous spec to diff against")

// TagContext carries the resolved common attributes of a tag after
// defaults are applied.
type TagContext struct {
	Preset  string
	Fork    string
	Style   string
	Version string
}

// Defaults supplies project-level fallbacks for tag attributes.
type Defaults struct {
	Version string
	Style   string
}

// ResolveContext applies tag attributes over defaults: preset falls back
// to mainnet, version and style to the project defaults, fork to the
// latest non-experimental fork of the requested version.
func (c *Client) ResolveContext(ctx context.Context, attrs Attributes, defaults Defaults) (TagContext, error) {
	tc := TagContext{
		Preset:  DefaultPreset,
		Version: defaults.Version,
		Style:   defaults.Style,
	}
	if tc.Version == "" {
		tc.Version = "nightly"
	}
	if tc.Style == "" {
		tc.Style = StyleHash
	}

	if preset, ok := attrs.Get("preset"); ok {
		tc.Preset = preset
	}
	if version, ok := attrs.Get("version"); ok {
		tc.Version = version
	}
	if style, ok := attrs.Get("style"); ok {
		tc.Style = style
	}

	if fork, ok := attrs.Get("fork"); ok {
		tc.Fork = fork
		return tc, nil
	}
	idx, err := c.Index(ctx, tc.Version)
	if err != nil {
		return TagContext{}, err
	}
	tc.Fork = idx.LatestFork()
	return tc, nil
}

// Render produces the text a tag's style asks for. Hash and full styles
// return the resolved item text unchanged; diff returns a unified diff
// against the nearest differing previous fork; link returns an external
// URL for function selectors.
func (c *Client) Render(ctx context.Context, attrs Attributes, tc TagContext) (string, error) {
	idx, err := c.Index(ctx, tc.Version)
	if err != nil {
		return "", err
	}

	switch tc.Style {
	case StyleHash, StyleFull:
		return Resolve(attrs, idx, tc.Preset, tc.Fork)
	case StyleDiff:
		return c.renderDiff(attrs, idx, tc)
	case StyleLink:
		return c.renderLink(ctx, attrs, tc)
	default:
		return "", fmt.Errorf("invalid style %q", tc.Style)
	}
}

// renderDiff walks the previous forks, most recent first, and diffs the
// current item text against the nearest fork whose text differs.
//
// A candidate whose text equals the text of the next (older) fork in the
// walk is skipped, so a run of unchanged content collapses to its oldest
// fork. A failed peek — walk exhausted or item missing from the older
// fork — leaves the candidate in place.
func (c *Client) renderDiff(attrs Attributes, idx Index, tc TagContext) (string, error) {
	current, err := Resolve(attrs, idx, tc.Preset, tc.Fork)
	if err != nil {
		return "", err
	}
	previousForks, err := idx.PreviousForks(tc.Fork)
	if err != nil {
		return "", err
	}

	for i, candidate := range previousForks {
		candidateText, err := Resolve(attrs, idx, tc.Preset, candidate)
		if err != nil {
			return "", err
		}
		if i+1 < len(previousForks) {
			peekText, peekErr := Resolve(attrs, idx, tc.Preset, previousForks[i+1])
			if peekErr == nil && peekText == candidateText {
				continue
			}
		}
		if candidateText != current {
			return unifiedDiff(candidate, stripComments(candidateText), tc.Fork, stripComments(current))
		}
	}
	return "", ErrNoPreviousSpec
}

func (c *Client) renderLink(ctx context.Context, attrs Attributes, tc TagContext) (string, error) {
	selector, name, err := attrs.Selector()
	if err != nil {
		return "", err
	}
	if selectorCategory[selector] != CategoryFunctions {
		return linkNotApplicable, nil
	}

	links, err := c.Links(ctx, tc.Version)
	if err != nil {
		return "", err
	}
	if url, ok := links.FunctionLink(tc.Fork, name); ok {
		return url, nil
	}
	return linkNotFound, nil
}

// unifiedDiff renders a line-based unified diff with fork names as the
// from/to labels.
func unifiedDiff(aName, a, bName, b string) (string, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("compute diff %s..%s: %w", aName, bName, err)
	}
	return strings.TrimRight(text, "\n"), nil
}

// stripComments removes comment-only lines and trailing inline comments
// from item text, preserving blank lines and token layout. Hash marks
// inside string literals are left alone.
func stripComments(code string) string {
	var out []string
	for _, line := range strings.Split(code, "\n") {
		stripped := strings.TrimRight(cutComment(line), " \t")
		if stripped == "" {
			if strings.TrimSpace(line) == "" {
				out = append(out, "")
			}
			// Comment-only lines are dropped entirely.
			continue
		}
		out = append(out, stripped)
	}
	return strings.Join(out, "\n")
}

// cutComment truncates a line at the first unquoted hash mark.
func cutComment(line string) string {
	var inSingle, inDouble bool
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return line[:i]
			}
		}
	}
	return line
}
