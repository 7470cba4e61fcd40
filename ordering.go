package keyset

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

// ParseDirection reads a direction case-insensitively. Anything that is not
// "desc" is treated as ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirectionDESC)) {
		return DirectionDESC
	}

	return DirectionASC
}

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// Negate returns the opposite direction.
func (o Direction) Negate() Direction {
	return lo.Ternary(o == DirectionDESC, DirectionASC, DirectionDESC)
}

func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// Sort is a resolved sort: one allow-listed field plus a
// direction. The identifier is always the implicit tie-breaker.
type Sort struct {
	Field string    `json:"field"`
	Dir   Direction `json:"dir"`
}

// ResolveSort determines the effective sort for a request.
//
// A sort embedded in a decoded cursor always wins over request parameters so
// that a traversal keeps the ordering its anchor was taken in. Fields missing
// from allowed degrade to idField; the direction degrades to ascending.
// No error is ever returned.
func ResolveSort(field, dir string, embedded *Sort, allowed []ColumnAlias, idField ColumnAlias) Sort {
	if embedded != nil {
		field, dir = embedded.Field, string(embedded.Dir)
	}

	field = strings.TrimSpace(field)
	if field != idField && !lo.Contains(allowed, field) {
		field = idField
	}

	return Sort{
		Field: field,
		Dir:   ParseDirection(dir),
	}
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func validColumnName(column string) bool {
	return column != "" && lo.Every(_availableColumnNameSymbols, []rune(column))
}

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !validColumnName(o.Column) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	return db.Order(o.ToSQL())
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	var err error
	for _, ordering := range o {
		err = ordering.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// resolveColumn maps an alias to its store column. Aliases without a mapping
// are used verbatim.
func resolveColumn(mapping ColumnMapping, alias ColumnAlias) string {
	if column, ok := mapping[alias]; ok && column != "" {
		return column
	}

	return alias
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
