// Package catalog holds the block templates a workspace can be built from: a
// fixed predefined palette plus the user's custom operators.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

// customIDPrefix prefixes every custom template id ("custom_tpl_3").
const customIDPrefix = "custom_tpl_"

// ErrInvalidState is returned by Restore when persisted state is inconsistent.
var ErrInvalidState = errors.New("invalid catalog state")

// Catalog owns the predefined and custom template lists. It is not safe for
// concurrent use; callers that share one across goroutines must serialize.
type Catalog struct {
	predefined        []schemas.BlockTemplate
	custom            []schemas.BlockTemplate
	nextCustomID      int
	reservePredefined bool
	logger            *zap.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithReservedPredefined controls whether custom operators may shadow a
// predefined operator such as "site:". Reserved by default.
func WithReservedPredefined(reserved bool) Option {
	return func(c *Catalog) { c.reservePredefined = reserved }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a catalog with the predefined palette and no custom templates.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		predefined:        append([]schemas.BlockTemplate(nil), predefinedTemplates...),
		nextCustomID:      1,
		reservePredefined: true,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("catalog")
	return c
}

// Template resolves a template id, looking at predefined templates first.
func (c *Catalog) Template(id string) (schemas.BlockTemplate, bool) {
	for _, t := range c.predefined {
		if t.ID == id {
			return t, true
		}
	}
	for _, t := range c.custom {
		if t.ID == id {
			return t, true
		}
	}
	return schemas.BlockTemplate{}, false
}

// TemplateByOperator resolves an operator such as "site:" (or "site") to a
// template. Custom templates are only consulted when no predefined one matches.
func (c *Catalog) TemplateByOperator(op string) (schemas.BlockTemplate, bool) {
	op = strings.TrimSpace(op)
	if op == "" {
		return schemas.BlockTemplate{}, false
	}
	candidates := []string{op}
	if !strings.HasSuffix(op, ":") {
		candidates = append(candidates, op+":")
	}
	for _, list := range [][]schemas.BlockTemplate{c.predefined, c.custom} {
		for _, t := range list {
			for _, cand := range candidates {
				if t.Operator != "" && strings.EqualFold(t.Operator, cand) {
					return t, true
				}
			}
		}
	}
	return schemas.BlockTemplate{}, false
}

// Predefined returns the fixed palette in display order.
func (c *Catalog) Predefined() []schemas.BlockTemplate {
	return append([]schemas.BlockTemplate(nil), c.predefined...)
}

// Custom returns the registered custom templates in registration order.
func (c *Catalog) Custom() []schemas.BlockTemplate {
	return append([]schemas.BlockTemplate(nil), c.custom...)
}

// All returns predefined followed by custom templates.
func (c *Catalog) All() []schemas.BlockTemplate {
	return append(c.Predefined(), c.custom...)
}

// State exports the custom templates for persistence.
func (c *Catalog) State() schemas.CatalogState {
	return schemas.CatalogState{
		Custom:       c.Custom(),
		NextCustomID: c.nextCustomID,
	}
}

// Restore replaces the custom templates with previously persisted state. The
// whole state is validated before anything is replaced. A stored counter that
// is missing or would reissue an existing id is recomputed from the ids.
func (c *Catalog) Restore(state schemas.CatalogState) error {
	seenIDs := make(map[string]struct{}, len(state.Custom))
	seenOps := make(map[string]struct{}, len(state.Custom))
	maxID := 0

	for i, t := range state.Custom {
		if t.ID == "" || strings.TrimSpace(t.Operator) == "" || strings.TrimSpace(t.Description) == "" {
			return fmt.Errorf("%w: template %d is missing id, operator or description", ErrInvalidState, i)
		}
		n, ok := parseCustomID(t.ID)
		if !ok {
			return fmt.Errorf("%w: template id %q is not a custom id", ErrInvalidState, t.ID)
		}
		if _, dup := seenIDs[t.ID]; dup {
			return fmt.Errorf("%w: duplicate template id %q", ErrInvalidState, t.ID)
		}
		if _, dup := seenOps[strings.ToLower(t.Operator)]; dup {
			return fmt.Errorf("%w: duplicate operator %q", ErrInvalidState, t.Operator)
		}
		seenIDs[t.ID] = struct{}{}
		seenOps[strings.ToLower(t.Operator)] = struct{}{}
		if n > maxID {
			maxID = n
		}
	}

	restored := make([]schemas.BlockTemplate, len(state.Custom))
	for i, t := range state.Custom {
		t.Kind = schemas.KindCustom
		restored[i] = t
	}

	next := state.NextCustomID
	if next <= maxID {
		if next > 0 {
			c.logger.Warn("Stored custom id counter is stale, recalculating.",
				zap.Int("stored", next), zap.Int("max_id", maxID))
		}
		next = maxID + 1
	}

	c.custom = restored
	c.nextCustomID = next
	c.logger.Debug("Restored custom templates.", zap.Int("count", len(restored)), zap.Int("next_id", next))
	return nil
}

func parseCustomID(id string) (int, bool) {
	if !strings.HasPrefix(id, customIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, customIDPrefix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
