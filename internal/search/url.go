// Package search maps a formatted query and a search engine to a search URL.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// ErrUnsupportedEngine is the sentinel behind UnsupportedEngineError.
var ErrUnsupportedEngine = errors.New("unsupported search engine")

// UnsupportedEngineError names the engine that was not recognized.
type UnsupportedEngineError struct {
	Engine string
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported search engine %q (supported: %s)", e.Engine, strings.Join(Names(), ", "))
}

func (e *UnsupportedEngineError) Unwrap() error { return ErrUnsupportedEngine }

// Endpoint is an engine's fixed search URL and query parameter name.
type Endpoint struct {
	Engine schemas.SearchEngine
	Base   string
	Param  string
}

// endpoints is the static engine table, in display order.
var endpoints = []Endpoint{
	{Engine: schemas.EngineGoogle, Base: "https://www.google.com/search", Param: "q"},
	{Engine: schemas.EngineBing, Base: "https://www.bing.com/search", Param: "q"},
	{Engine: schemas.EngineDuckDuckGo, Base: "https://duckduckgo.com/", Param: "q"},
	{Engine: schemas.EngineYahoo, Base: "https://search.yahoo.com/search", Param: "p"},
	{Engine: schemas.EngineBrave, Base: "https://search.brave.com/search", Param: "q"},
}

// Engines returns the supported engines in display order.
func Engines() []Endpoint {
	return append([]Endpoint(nil), endpoints...)
}

// Names returns the supported engine identifiers.
func Names() []string {
	names := make([]string, len(endpoints))
	for i, ep := range endpoints {
		names[i] = string(ep.Engine)
	}
	return names
}

// Lookup returns the endpoint for engine.
func Lookup(engine schemas.SearchEngine) (Endpoint, error) {
	for _, ep := range endpoints {
		if ep.Engine == engine {
			return ep, nil
		}
	}
	return Endpoint{}, &UnsupportedEngineError{Engine: string(engine)}
}

// ParseEngine normalizes user input ("Google ", "DuckDuckGo") to an engine.
func ParseEngine(s string) (schemas.SearchEngine, error) {
	engine := schemas.SearchEngine(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Lookup(engine); err != nil {
		return "", err
	}
	return engine, nil
}

// BuildURL returns the search URL for q on engine. An empty query yields an
// empty URL. Unknown engines are an error; there is no silent fallback.
func BuildURL(q string, engine schemas.SearchEngine) (string, error) {
	ep, err := Lookup(engine)
	if err != nil {
		return "", err
	}
	if q == "" {
		return "", nil
	}
	return ep.Base + "?" + ep.Param + "=" + EscapeComponent(q), nil
}

// EscapeComponent percent-encodes s as a URI query component. Everything but
// ALPHA / DIGIT / "-" / "." / "_" / "~" is escaped, and spaces become %20.
// QueryEscape already escapes a literal '+', so every '+' it emits is a space.
func EscapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
