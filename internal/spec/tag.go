package spec

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// attrPattern matches name="value" pairs. Values are literal: double
	// quotes end the value, there is no escaping.
	attrPattern = regexp.MustCompile(`(\w+)="(.*?)"`)

	// tagPattern matches a self-closing tag (group 1) or a paired tag
	// with inline content (group 2) in a single pass.
	tagPattern = regexp.MustCompile(`(?s)(<spec\b[^>]*/>)|(<spec\b[^>]*>.*?</spec>)`)

	// openingPattern matches the opening delimiter of a paired tag.
	openingPattern = regexp.MustCompile(`<spec\b[^>]*>`)

	// TagHintPattern matches anything that looks like a spec tag opening;
	// used to decide whether a file needs processing at all.
	TagHintPattern = regexp.MustCompile(`<spec\b.*?>`)
)

// SelectorAttributes lists the item-selector attribute names. Exactly one
// must be present on a tag.
var SelectorAttributes = []string{
	"function", "fn", "constant_var", "preset_var", "config_var",
	"custom_type", "ssz_object", "dataclass",
}

// Attributes holds a tag's attributes in source order.
type Attributes struct {
	pairs []attrPair
}

type attrPair struct {
	key   string
	value string
}

// ExtractAttributes parses name="value" pairs from a tag's opening
// delimiter. A repeated attribute keeps its first position but takes the
// last value.
func ExtractAttributes(tag string) Attributes {
	var attrs Attributes
	for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
		attrs.set(m[1], m[2])
	}
	return attrs
}

func (a *Attributes) set(key, value string) {
	for i := range a.pairs {
		if a.pairs[i].key == key {
			a.pairs[i].value = value
			return
		}
	}
	a.pairs = append(a.pairs, attrPair{key: key, value: value})
}

// Get returns the value of an attribute and whether it is present.
func (a Attributes) Get(key string) (string, bool) {
	for _, p := range a.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Value returns the attribute value, or the empty string when absent.
func (a Attributes) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Has reports whether the attribute is present.
func (a Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Keys returns the attribute names in source order.
func (a Attributes) Keys() []string {
	keys := make([]string, len(a.pairs))
	for i, p := range a.pairs {
		keys[i] = p.key
	}
	return keys
}

// Selector returns the single item-selector attribute and its value.
// Zero selectors or more than one selector is an error.
func (a Attributes) Selector() (string, string, error) {
	var found []string
	for _, name := range SelectorAttributes {
		if a.Has(name) {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
		return "", "", fmt.Errorf("tag has no spec item selector")
	case 1:
		return found[0], a.Value(found[0]), nil
	default:
		return "", "", fmt.Errorf("tag can only specify one spec item, got %s", strings.Join(found, " and "))
	}
}

// String renders the attributes as they appear in a tag.
func (a Attributes) String() string {
	var b strings.Builder
	for i, p := range a.pairs {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=\"%s\"", p.key, p.value)
	}
	return b.String()
}

// TagMatch is one occurrence of a spec tag in a document.
type TagMatch struct {
	// Start and End delimit the whole tag, including inline content and
	// the closing marker for paired tags.
	Start int
	End   int
	// Opening is the opening delimiter; attributes are parsed from it
	// regardless of form.
	Opening     string
	SelfClosing bool
}

// FindTags locates every spec tag in a document in source order.
func FindTags(content string) []TagMatch {
	var matches []TagMatch
	for _, m := range tagPattern.FindAllStringSubmatchIndex(content, -1) {
		tag := TagMatch{Start: m[0], End: m[1]}
		if m[2] >= 0 {
			tag.SelfClosing = true
			tag.Opening = content[m[2]:m[3]]
		} else {
			paired := content[m[4]:m[5]]
			opening := openingPattern.FindString(paired)
			if opening == "" {
				opening = paired
			}
			tag.Opening = opening
		}
		matches = append(matches, tag)
	}
	return matches
}
