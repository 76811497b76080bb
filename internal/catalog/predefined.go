package catalog

import "github.com/xkilldash9x/dorkbuilder/api/schemas"

// predefinedTemplates is the fixed palette. Ids are the kind slugs so they can
// never collide with the custom_tpl_N ids minted by the registrar.
var predefinedTemplates = []schemas.BlockTemplate{
	{ID: "site", Kind: schemas.KindSite, Operator: "site:", Placeholder: "example.com", Description: "Search within a specific website or domain"},
	{ID: "inurl", Kind: schemas.KindInURL, Operator: "inurl:", Placeholder: "admin", Description: "Search for pages with a specific word in the URL"},
	{ID: "filetype", Kind: schemas.KindFiletype, Operator: "filetype:", Placeholder: "pdf", Description: "Search for specific file types"},
	{ID: "intitle", Kind: schemas.KindInTitle, Operator: "intitle:", Placeholder: "index of", Description: "Search for pages with a specific word in the title"},
	{ID: "intext", Kind: schemas.KindInText, Operator: "intext:", Placeholder: "password", Description: "Search for pages containing specific text"},
	{ID: "cache", Kind: schemas.KindCache, Operator: "cache:", Placeholder: "example.com", Description: "Show the search engine's cached version of a page"},
	{ID: "related", Kind: schemas.KindRelated, Operator: "related:", Placeholder: "example.com", Description: "Find sites related to a given domain"},
	{ID: "ext", Kind: schemas.KindExt, Operator: "ext:", Placeholder: "sql", Description: "Search for files with a specific extension"},
	{ID: "allintext", Kind: schemas.KindAllInText, Operator: "allintext:", Placeholder: "username password", Description: "Pages containing all of the given words in the body"},
	{ID: "allintitle", Kind: schemas.KindAllInTitle, Operator: "allintitle:", Placeholder: "admin login", Description: "Pages containing all of the given words in the title"},
	{ID: "allinurl", Kind: schemas.KindAllInURL, Operator: "allinurl:", Placeholder: "admin config", Description: "Pages containing all of the given words in the URL"},
	{ID: "allinanchor", Kind: schemas.KindAllInAnchor, Operator: "allinanchor:", Placeholder: "click here", Description: "Pages linked to with all of the given words in the anchor text"},
	{ID: "custom", Kind: schemas.KindCustom, Operator: "", Placeholder: "keyword or phrase", Description: "Add a custom search term"},
}
