package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	tagged := filepath.Join(root, "doc.md")
	plain := filepath.Join(root, "plain.md")
	excluded := filepath.Join(root, "vendor", "dep.md")

	require.NoError(t, os.WriteFile(tagged, []byte(`<spec fn="foo" fork="phase0" />`), 0o644))
	require.NoError(t, os.WriteFile(plain, []byte("no tags"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(excluded), 0o755))
	require.NoError(t, os.WriteFile(excluded, []byte(`<spec fn="foo" fork="phase0" />`), 0o644))

	w := New(root, []string{"vendor/**"}, func(ctx context.Context, path string) error { return nil })

	ok, err := w.Relevant(tagged)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.Relevant(plain)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = w.Relevant(excluded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	w := New(t.TempDir(), nil, func(ctx context.Context, path string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
