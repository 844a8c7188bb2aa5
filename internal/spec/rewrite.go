package spec

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// Processor rewrites spec tags in documents. It resolves each tag
// against the specification index, recomputes the integrity hash, and
// splices the rendered content back in place.
type Processor struct {
	client   *Client
	defaults Defaults

	// Log receives one line per processed tag. Defaults to io.Discard.
	Log io.Writer
}

// NewProcessor creates a Processor with the given project defaults.
func NewProcessor(client *Client, defaults Defaults) *Processor {
	return &Processor{
		client:   client,
		defaults: defaults,
		Log:      io.Discard,
	}
}

// ProcessFile rewrites every spec tag in a file and writes the file back
// in place. All tags are located in one pass over the original content
// before any replacement text is spliced in, so replacements never shift
// later matches. The first fatal tag error aborts the file.
func (p *Processor) ProcessFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)

	matches := FindTags(content)
	if len(matches) == 0 {
		return nil
	}

	replacements := make([]string, len(matches))
	for i, match := range matches {
		replacement, err := p.renderTag(ctx, content, match)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		replacements[i] = replacement
	}

	var b strings.Builder
	last := 0
	for i, match := range matches {
		b.WriteString(content[last:match.Start])
		b.WriteString(replacements[i])
		last = match.End
	}
	b.WriteString(content[last:])

	updated := b.String()
	if updated == content {
		return nil
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderTag produces the replacement text for one tag occurrence.
func (p *Processor) renderTag(ctx context.Context, content string, match TagMatch) (string, error) {
	attrs := ExtractAttributes(match.Opening)
	fmt.Fprintf(p.Log, "spec tag: %s\n", attrs)

	tc, err := p.client.ResolveContext(ctx, attrs, p.defaults)
	if err != nil {
		return "", err
	}

	idx, err := p.client.Index(ctx, tc.Version)
	if err != nil {
		return "", err
	}

	// The integrity hash covers the resolved item text, never the
	// rendered form, so drift is detectable even on hash-style tags.
	resolved, err := Resolve(attrs, idx, tc.Preset, tc.Fork)
	if err != nil {
		return "", err
	}
	hash := ContentHash(resolved)

	if tc.Style == StyleHash {
		return buildSelfClosingTag(attrs, hash), nil
	}

	rendered, err := p.client.Render(ctx, attrs, tc)
	if err != nil {
		return "", err
	}
	prefix := linePrefix(content, match.Start)
	return buildPairedTag(attrs, hash, rendered, prefix), nil
}

// ContentHash is the first 8 hex characters of the SHA-256 of the
// resolved item text.
func ContentHash(resolved string) string {
	sum := sha256.Sum256([]byte(resolved))
	return fmt.Sprintf("%x", sum)[:8]
}

// linePrefix returns the text preceding the tag on its own line, which
// becomes the indentation for spliced content.
func linePrefix(content string, start int) string {
	before := content[:start]
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		return before[i+1:]
	}
	return before
}

// buildSelfClosingTag rebuilds a tag with its attributes in original
// order, a stale hash dropped, and the fresh hash appended last.
func buildSelfClosingTag(attrs Attributes, hash string) string {
	var b strings.Builder
	b.WriteString("<spec")
	writeAttributes(&b, attrs)
	fmt.Fprintf(&b, " hash=\"%s\" />", hash)
	return b.String()
}

// buildPairedTag rebuilds a paired tag: opening delimiter, rendered
// content indented to the tag's line prefix, and a closing marker.
func buildPairedTag(attrs Attributes, hash, rendered, prefix string) string {
	var b strings.Builder
	b.WriteString("<spec")
	writeAttributes(&b, attrs)
	fmt.Fprintf(&b, " hash=\"%s\">", hash)

	for _, line := range strings.Split(strings.TrimRight(rendered, " \t\n"), "\n") {
		b.WriteByte('\n')
		if strings.TrimRight(line, " \t") == "" {
			b.WriteString(strings.TrimRight(prefix, " \t"))
		} else {
			b.WriteString(prefix)
			b.WriteString(line)
		}
	}

	b.WriteByte('\n')
	b.WriteString(prefix)
	b.WriteString("</spec>")
	return b.String()
}

func writeAttributes(b *strings.Builder, attrs Attributes) {
	for _, key := range attrs.Keys() {
		if key == "hash" {
			continue
		}
		fmt.Fprintf(b, " %s=\"%s\"", key, attrs.Value(key))
	}
}
