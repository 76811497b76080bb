package catalog

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

type registerOptions struct {
	allowBare bool
}

// RegisterOption adjusts a single RegisterCustom call.
type RegisterOption func(*registerOptions)

// AllowBareOperator accepts an operator without a trailing colon. It exists for
// callers that asked the user to confirm an unconventional operator.
func AllowBareOperator() RegisterOption {
	return func(o *registerOptions) { o.allowBare = true }
}

// RegisterCustom validates and appends a new custom template. Validation stops
// at the first failing rule and a failed call leaves the catalog untouched.
func (c *Catalog) RegisterCustom(operator, placeholder, description string, opts ...RegisterOption) (schemas.BlockTemplate, error) {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	operator = strings.TrimSpace(operator)
	placeholder = strings.TrimSpace(placeholder)
	description = strings.TrimSpace(description)

	switch {
	case operator == "":
		return schemas.BlockTemplate{}, &MissingFieldError{Field: "operator"}
	case placeholder == "":
		return schemas.BlockTemplate{}, &MissingFieldError{Field: "placeholder"}
	case description == "":
		return schemas.BlockTemplate{}, &MissingFieldError{Field: "description"}
	}

	if !strings.HasSuffix(operator, ":") && !o.allowBare {
		return schemas.BlockTemplate{}, &MalformedOperatorError{Operator: operator}
	}

	// Operators compare case-insensitively here and in TemplateByOperator.
	for _, t := range c.custom {
		if strings.EqualFold(t.Operator, operator) {
			return schemas.BlockTemplate{}, &DuplicateOperatorError{Operator: operator}
		}
	}
	if c.reservePredefined {
		for _, t := range c.predefined {
			if t.Operator != "" && strings.EqualFold(t.Operator, operator) {
				return schemas.BlockTemplate{}, &DuplicateOperatorError{Operator: operator, Predefined: true}
			}
		}
	}

	tpl := schemas.BlockTemplate{
		ID:          customIDPrefix + strconv.Itoa(c.nextCustomID),
		Kind:        schemas.KindCustom,
		Operator:    operator,
		Placeholder: placeholder,
		Description: description,
	}
	c.nextCustomID++
	c.custom = append(c.custom, tpl)

	c.logger.Info("Registered custom block template.", zap.String("id", tpl.ID), zap.String("operator", operator))
	return tpl, nil
}
