package keyset

import "fmt"

// Operator defines a comparison operator for filtering by column.
// Used both in filters and in keyset conditions.
type Operator string

const (
	OperatorEQ  Operator = "="
	OperatorGT  Operator = ">"
	OperatorGTE Operator = ">="
	OperatorLT  Operator = "<"
	OperatorLTE Operator = "<="
)

// _rangeOperators maps request-level operator names to operators. Anything
// missing from the map is not a range operator.
var _rangeOperators = map[string]Operator{
	"gt":  OperatorGT,
	"gte": OperatorGTE,
	"lt":  OperatorLT,
	"lte": OperatorLTE,
}

func (o Operator) Valid() bool {
	switch o {
	case OperatorEQ, OperatorGT, OperatorGTE, OperatorLT, OperatorLTE:
		return true
	default:
		return false
	}
}

// Inverse flips a strict operator: ">" becomes "<" and vice versa.
func (o Operator) Inverse() Operator {
	switch o {
	case OperatorGT:
		return OperatorLT
	case OperatorLT:
		return OperatorGT
	default:
		panic(fmt.Errorf("cannot inverse operator '%s'", o))
	}
}

// ParseRangeOperator maps "gt", "gte", "lt" and "lte" to operators.
func ParseRangeOperator(s string) (Operator, bool) {
	op, ok := _rangeOperators[s]
	return op, ok
}
