package spec

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexJSON = `{
  "mainnet": {
    "phase0": {
      "functions": {"foo": "def foo():\n    return 1"},
      "constant_vars": {"MAX_COMMITTEES": ["uint64", "64"]},
      "config_vars": {"GENESIS_FORK_VERSION": [null, "0x00000000"]}
    }
  }
}`

const linksJSON = `{
  "specs/phase0/beacon-chain.md#foo": "https://example.org/phase0#foo",
  "specs/altair/beacon-chain.md#foo": "https://example.org/altair#foo"
}`

func newTestServer(t *testing.T, requests *int) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		switch r.URL.Path {
		case "/nightly/pyspec.json":
			w.Write([]byte(indexJSON))
		case "/nightly/links.json":
			w.Write([]byte(linksJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return NewClientWithBaseURL(server.URL)
}

func TestClientIndex(t *testing.T) {
	var requests int
	client := newTestServer(t, &requests)

	idx, err := client.Index(t.Context(), "nightly")
	require.NoError(t, err)

	item, err := idx.Item("mainnet", "phase0", CategoryFunctions, "foo")
	require.NoError(t, err)
	assert.Equal(t, "def foo():\n    return 1", item.Body)

	item, err = idx.Item("mainnet", "phase0", CategoryConstantVars, "MAX_COMMITTEES")
	require.NoError(t, err)
	require.NotNil(t, item.Type)
	assert.Equal(t, "uint64", *item.Type)

	item, err = idx.Item("mainnet", "phase0", CategoryConfigVars, "GENESIS_FORK_VERSION")
	require.NoError(t, err)
	assert.Nil(t, item.Type)
}

func TestClientIndexMemoized(t *testing.T) {
	var requests int
	client := newTestServer(t, &requests)

	_, err := client.Index(t.Context(), "nightly")
	require.NoError(t, err)
	_, err = client.Index(t.Context(), "nightly")
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
}

func TestClientIndexNotFound(t *testing.T) {
	var requests int
	client := newTestServer(t, &requests)

	_, err := client.Index(t.Context(), "v9.9.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestClientLinksPreserveOrder(t *testing.T) {
	var requests int
	client := newTestServer(t, &requests)

	links, err := client.Links(t.Context(), "nightly")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "specs/phase0/beacon-chain.md#foo", links[0].Key)

	url, ok := links.FunctionLink("phase0", "foo")
	require.True(t, ok)
	assert.Equal(t, "https://example.org/phase0#foo", url)
}

func TestLinksRejectNonObject(t *testing.T) {
	var links Links
	assert.Error(t, json.Unmarshal([]byte(`["not", "an", "object"]`), &links))
}
