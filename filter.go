package keyset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Filter is a conjunction of predicates over request-level field aliases.
// An empty Filter matches all records. Once embedded in a cursor a Filter is
// never changed for the rest of the traversal.
type Filter []Predicate

// FilterSchema is the fixed set of predicates a request may build: one
// equality predicate per Equality alias and at most one range predicate on
// the Range alias.
type FilterSchema struct {
	Equality []ColumnAlias
	Range    ColumnAlias
}

// RangeParam is the raw form of a range predicate, e.g. {"gte", "20"}.
type RangeParam struct {
	Op    string
	Value string
}

// FilterParams are the raw filter parameters of a request.
type FilterParams struct {
	Equal map[ColumnAlias]string
	Range RangeParam
}

// ResolveFilter returns the effective filter of a request. A decoded cursor
// pins its filter: request parameters are ignored whenever state is present.
//
// Otherwise the filter is built from params following schema. Unknown range
// operators and unparsable operands drop the range predicate silently.
func ResolveFilter(params FilterParams, state *State, schema FilterSchema) Filter {
	if state != nil {
		return lo.Ternary(state.Filter == nil, Filter{}, state.Filter)
	}

	filter := Filter{}
	for _, alias := range schema.Equality {
		value := params.Equal[alias]
		if value == "" {
			continue
		}

		filter = append(filter, Predicate{Column: alias, Operator: OperatorEQ, Value: value})
	}

	if schema.Range == "" || params.Range.Value == "" {
		return filter
	}

	op, ok := ParseRangeOperator(params.Range.Op)
	if !ok {
		return filter
	}

	operand, err := strconv.ParseFloat(strings.TrimSpace(params.Range.Value), 64)
	if err != nil {
		return filter
	}

	return append(filter, Predicate{Column: schema.Range, Operator: op, Value: operand})
}

// validate checks that a filter decoded from a cursor could have been built
// by ResolveFilter under schema.
func (f Filter) validate(schema FilterSchema) error {
	for _, predicate := range f {
		switch {
		case lo.Contains(schema.Equality, predicate.Column):
			if predicate.Operator != OperatorEQ {
				return fmt.Errorf("unexpected operator '%s' for equality field '%s'", predicate.Operator, predicate.Column)
			}
			if _, ok := predicate.Value.(string); !ok {
				return fmt.Errorf("equality field '%s' requires a string operand", predicate.Column)
			}
		case schema.Range != "" && predicate.Column == schema.Range:
			if !predicate.Operator.Valid() || predicate.Operator == OperatorEQ {
				return fmt.Errorf("unexpected operator '%s' for range field '%s'", predicate.Operator, predicate.Column)
			}
			if _, ok := predicate.Value.(float64); !ok {
				return fmt.Errorf("range field '%s' requires a numeric operand", predicate.Column)
			}
		default:
			return fmt.Errorf("unexpected filter field '%s'", predicate.Column)
		}
	}

	return nil
}

// conjunction maps the filter aliases to store columns.
func (f Filter) conjunction(mapping ColumnMapping) Conjunction {
	return lo.Map(f, func(item Predicate, _ int) Predicate {
		item.Column = resolveColumn(mapping, item.Column)
		return item
	})
}
