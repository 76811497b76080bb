// Package query turns an ordered list of block instances into a search query.
package query

import (
	"strings"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// Format serializes blocks in order. Blocks whose value is blank are skipped so
// an operator is never emitted without a value. An operator-less block (raw or
// imported text) contributes its trimmed value unchanged.
func Format(blocks []schemas.BlockInstance) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		v := strings.TrimSpace(b.Value)
		if v == "" {
			continue
		}
		if b.Operator != "" {
			parts = append(parts, b.Operator+v)
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// Filled reports how many blocks would contribute a token to Format.
func Filled(blocks []schemas.BlockInstance) int {
	n := 0
	for _, b := range blocks {
		if strings.TrimSpace(b.Value) != "" {
			n++
		}
	}
	return n
}
