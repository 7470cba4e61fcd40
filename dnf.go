package keyset

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

type (
	// Predicate is the value of Operator(Column, Value). The short JSON keys
	// keep cursor tokens compact.
	Predicate struct {
		Column   string   `json:"c"`
		Operator Operator `json:"o"`
		Value    any      `json:"v"`
	}

	// Conjunction is a list of predicates joined by AND.
	Conjunction []Predicate

	// Condition represents the disjunctive normal form (DNF) of a logical
	// expression. Each conjunction is joined by OR, and each conjunction
	// consists of a list of predicates which are joined by AND.
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12) OR (A21 AND A22), for n=2, m=2.
	//
	// An empty Condition matches everything.
	Condition []Conjunction
)

// toGORMExpression converts a predicate of the form Operator(Column, Value)
// into an SQL condition "Column Operator Value" represented as a clause.Expression.
//
// IMPORTANT: The method uses the SQL placeholder "?".
func (p Predicate) toGORMExpression() clause.Expression {
	sqlClause, arg := p.toSQLClause()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// toSQLClause converts a predicate to an SQL condition of the form
// "Column Operator ?" with a corresponding value.
//
// Example:
//
//	Predicate = { Column: "id", Operator: ">", Value: 123}
//
// Result:
//
//	("id > ?", 123)
func (p Predicate) toSQLClause() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", p.Column, p.Operator), p.Value
}

// toGORMExpression converts a conjunction (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3".
func (c Conjunction) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(c))
	for _, predicate := range c {
		andExpressions = append(andExpressions, predicate.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toSQLClause converts a conjunction (K1, K2, K3) into an SQL condition
// "(K1 AND K2 AND K3)" with corresponding values.
//
// Example:
//
//	Conjunction = {
//		{Column: "price", Operator: "=", Value: 5},
//		{Column: "id", Operator: ">", Value: 7}
//	}
//
// Result:
//
//	("(price = ? AND id > ?)", [5, 7])
func (c Conjunction) toSQLClause() (string, []driver.Value) {
	andClauses := make([]string, 0, len(c))
	andValues := make([]driver.Value, 0, len(c))

	for _, predicate := range c {
		andClause, andValue := predicate.toSQLClause()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// IsEmpty reports whether the condition matches everything.
func (d Condition) IsEmpty() bool {
	for _, conjunction := range d {
		if len(conjunction) > 0 {
			return false
		}
	}

	return true
}

// toGORMExpression joins the conjunctions of the DNF with OR.
func (d Condition) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, conjunction := range d {
		andExpressions := conjunction.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// ToSQL converts the DNF into an SQL condition with "?" placeholders and
// the list of values for them. An empty condition yields "TRUE".
//
// Example:
//
//	Condition = {
//		{{Column: "price", Operator: "<", Value: 10}},
//		{{Column: "price", Operator: "=", Value: 10}, {Column: "id", Operator: "<", Value: 3}},
//	}
//
// Result:
//
//	("((price < ?) OR (price = ? AND id < ?))", [10, 10, 3])
//
// Usage:
//
//	where, args := cond.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM products WHERE %s", where)
func (d Condition) ToSQL() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, conjunction := range d {
		orClause, orValues := conjunction.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}
