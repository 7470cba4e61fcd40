package keyset

import "context"

// Query is a single range query issued by the pager. Where and Relative are
// joined by AND; both hold store column names.
type Query struct {
	Where     Conjunction
	Relative  Condition
	Orderings Orderings
	Limit     int
	// Fields restricts the returned fields. Empty means the whole record.
	Fields []string
}

// Store is the record store collaborator of a Pager. Implementations own
// connections and timeouts; the pager only issues read queries.
type Store[T any] interface {
	// Find returns the records matching q in q.Orderings order.
	Find(ctx context.Context, q Query) ([]T, error)
	// Exists reports whether at least one record matches q.
	Exists(ctx context.Context, q Query) (bool, error)
}
