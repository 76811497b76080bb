package query

import (
	"regexp"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

var (
	braveExcludeExt = regexp.MustCompile(`-ext:(\w+)`)
	braveIncludeExt = regexp.MustCompile(`(^|[\s(])ext:(\w+)`)
)

// Adapt rewrites a formatted query for engines that spell operators
// differently. Brave has no ext: operator, so ext: becomes filetype:. Other
// engines get the query back untouched.
func Adapt(q string, engine schemas.SearchEngine) string {
	if engine != schemas.EngineBrave {
		return q
	}
	q = braveExcludeExt.ReplaceAllString(q, `-filetype:$1`)
	return braveIncludeExt.ReplaceAllString(q, `${1}filetype:$2`)
}
