package search

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

func TestBuildURL(t *testing.T) {
	t.Run("google round trip", func(t *testing.T) {
		q := "site:example.com filetype:pdf"
		u, err := BuildURL(q, schemas.EngineGoogle)
		require.NoError(t, err)

		assert.Equal(t, "https://www.google.com/search?q=site%3Aexample.com%20filetype%3Apdf", u)
		assert.NotContains(t, u, " ")

		parsed, err := url.Parse(u)
		require.NoError(t, err)
		assert.Equal(t, "www.google.com", parsed.Host)
		assert.Equal(t, q, parsed.Query().Get("q"))
	})

	t.Run("engine table", func(t *testing.T) {
		cases := map[schemas.SearchEngine]string{
			schemas.EngineGoogle:     "https://www.google.com/search?q=a%20b",
			schemas.EngineBing:       "https://www.bing.com/search?q=a%20b",
			schemas.EngineDuckDuckGo: "https://duckduckgo.com/?q=a%20b",
			schemas.EngineYahoo:      "https://search.yahoo.com/search?p=a%20b",
			schemas.EngineBrave:      "https://search.brave.com/search?q=a%20b",
		}
		for engine, want := range cases {
			got, err := BuildURL("a b", engine)
			require.NoError(t, err)
			assert.Equal(t, want, got, string(engine))
		}
	})

	t.Run("reserved characters are escaped and survive decoding", func(t *testing.T) {
		q := `intitle:"index of" (admin | root) +secret -ext:log & a=b/c?d#e 100%`
		u, err := BuildURL(q, schemas.EngineBing)
		require.NoError(t, err)

		raw := strings.TrimPrefix(u, "https://www.bing.com/search?q=")
		for _, ch := range []string{" ", `"`, ":", "(", ")", "+", "&", "=", "/", "?", "#", "|"} {
			assert.NotContains(t, raw, ch, "character %q must be escaped", ch)
		}

		decoded, err := url.QueryUnescape(raw)
		require.NoError(t, err)
		assert.Equal(t, q, decoded)

		parsed, err := url.Parse(u)
		require.NoError(t, err)
		assert.Equal(t, q, parsed.Query().Get("q"))
	})

	t.Run("unicode survives", func(t *testing.T) {
		q := "intext:contraseña"
		u, err := BuildURL(q, schemas.EngineDuckDuckGo)
		require.NoError(t, err)
		parsed, err := url.Parse(u)
		require.NoError(t, err)
		assert.Equal(t, q, parsed.Query().Get("q"))
	})

	t.Run("empty query yields empty url", func(t *testing.T) {
		u, err := BuildURL("", schemas.EngineGoogle)
		require.NoError(t, err)
		assert.Empty(t, u)
	})

	t.Run("unsupported engine", func(t *testing.T) {
		for _, engine := range []schemas.SearchEngine{"altavista", "", "GOOGLE"} {
			u, err := BuildURL("site:example.com", engine)
			require.Error(t, err, "engine %q", engine)
			assert.Empty(t, u)
			assert.ErrorIs(t, err, ErrUnsupportedEngine)

			var ue *UnsupportedEngineError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, string(engine), ue.Engine)
		}
	})
}

func TestParseEngine(t *testing.T) {
	got, err := ParseEngine("  DuckDuckGo ")
	require.NoError(t, err)
	assert.Equal(t, schemas.EngineDuckDuckGo, got)

	_, err = ParseEngine("ask")
	assert.ErrorIs(t, err, ErrUnsupportedEngine)
	assert.Contains(t, err.Error(), "google, bing, duckduckgo, yahoo, brave")
}

func TestEnginesIsACopy(t *testing.T) {
	eps := Engines()
	require.Len(t, eps, 5)
	eps[0].Base = "https://evil.example"
	ep, err := Lookup(schemas.EngineGoogle)
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/search", ep.Base)
}
