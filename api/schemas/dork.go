package schemas

import (
	"time"
)

// -- Block Schemas --

// BlockKind tags a block with the search operator family it belongs to.
type BlockKind string

const (
	KindSite        BlockKind = "site"
	KindInURL       BlockKind = "inurl"
	KindFiletype    BlockKind = "filetype"
	KindInTitle     BlockKind = "intitle"
	KindInText      BlockKind = "intext"
	KindCache       BlockKind = "cache"
	KindRelated     BlockKind = "related"
	KindExt         BlockKind = "ext"
	KindAllInText   BlockKind = "allintext"
	KindAllInTitle  BlockKind = "allintitle"
	KindAllInURL    BlockKind = "allinurl"
	KindAllInAnchor BlockKind = "allinanchor"
	// KindCustom covers both user-registered operators and raw query text.
	KindCustom BlockKind = "custom"
)

// BlockTemplate is a reusable, catalog-resident block definition.
type BlockTemplate struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        BlockKind `json:"type" yaml:"type"`
	Operator    string    `json:"operator" yaml:"operator"`
	Placeholder string    `json:"placeholder" yaml:"placeholder"`
	Description string    `json:"description" yaml:"description"`
}

// BlockInstance is a block placed in a workspace. Everything except Value is
// copied from the originating template when the instance is created.
type BlockInstance struct {
	ID          string    `json:"id"`
	Kind        BlockKind `json:"type"`
	Operator    string    `json:"operator"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description"`
	Value       string    `json:"value"`
}

// CatalogState is the serializable part of a catalog: the custom templates and
// the counter used to mint the next custom template id.
type CatalogState struct {
	Custom       []BlockTemplate `json:"custom" yaml:"custom"`
	NextCustomID int             `json:"next_custom_id" yaml:"next_custom_id"`
}

// -- Search Schemas --

// SearchEngine identifies one of the supported web search engines.
type SearchEngine string

const (
	EngineGoogle     SearchEngine = "google"
	EngineBing       SearchEngine = "bing"
	EngineDuckDuckGo SearchEngine = "duckduckgo"
	EngineYahoo      SearchEngine = "yahoo"
	EngineBrave      SearchEngine = "brave"
)

// SearchRecord is one executed search as kept in the history.
type SearchRecord struct {
	ID         string       `json:"id" yaml:"id"`
	Query      string       `json:"query" yaml:"query"`
	Engine     SearchEngine `json:"engine" yaml:"engine"`
	URL        string       `json:"url" yaml:"url"`
	BlockCount int          `json:"block_count" yaml:"block_count"`
	CreatedAt  time.Time    `json:"created_at" yaml:"created_at"`
}

// -- GHDB Schemas --

// GHDBEntry is a single Google Hacking Database row.
type GHDBEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Dork     string `json:"dork"`
	Category string `json:"category"`
	Date     string `json:"date"`
	URL      string `json:"url"`
}

// GHDBPage is one page of GHDB results as returned by the DataTables endpoint.
type GHDBPage struct {
	Draw            int         `json:"draw"`
	RecordsTotal    int         `json:"records_total"`
	RecordsFiltered int         `json:"records_filtered"`
	Entries         []GHDBEntry `json:"entries"`
}
