package keyset

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _mongoOperators = map[Operator]string{
	OperatorGT:  "$gt",
	OperatorGTE: "$gte",
	OperatorLT:  "$lt",
	OperatorLTE: "$lte",
}

// MongoStore runs pager queries against a MongoDB collection whose documents
// decode into T.
type MongoStore[T any] struct {
	coll *mongo.Collection
}

func NewMongoStore[T any](coll *mongo.Collection) *MongoStore[T] {
	return &MongoStore[T]{coll: coll}
}

// Find - implements Store.
func (s *MongoStore[T]) Find(ctx context.Context, q Query) ([]T, error) {
	cur, err := s.coll.Find(ctx, q.toBSON(), q.findOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []T
	if err = cur.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// Exists - implements Store.
func (s *MongoStore[T]) Exists(ctx context.Context, q Query) (bool, error) {
	q.Limit = 1

	cur, err := s.coll.Find(ctx, q.toBSON(), q.findOptions())
	if err != nil {
		return false, err
	}
	defer cur.Close(ctx)

	found := cur.Next(ctx)

	return found, cur.Err()
}

func (q Query) findOptions() *options.FindOptions {
	opts := options.Find()
	if len(q.Orderings) > 0 {
		opts.SetSort(q.Orderings.toBSON())
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if len(q.Fields) > 0 {
		opts.SetProjection(lo.SliceToMap(q.Fields, func(field string) (string, int) {
			return field, 1
		}))
	}

	return opts
}

// toBSON renders Where AND Relative as a query document.
func (q Query) toBSON() bson.M {
	parts := make([]bson.M, 0, 2)
	if len(q.Where) > 0 {
		parts = append(parts, q.Where.toBSON())
	}
	if !q.Relative.IsEmpty() {
		parts = append(parts, q.Relative.toBSON())
	}

	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0]
	default:
		return bson.M{"$and": lo.ToAnySlice(parts)}
	}
}

func (p Predicate) toBSON() bson.M {
	if p.Operator == OperatorEQ {
		return bson.M{p.Column: p.Value}
	}

	return bson.M{p.Column: bson.M{_mongoOperators[p.Operator]: p.Value}}
}

func (c Conjunction) toBSON() bson.M {
	switch len(c) {
	case 0:
		return nil
	case 1:
		return c[0].toBSON()
	default:
		return bson.M{"$and": lo.Map(c, func(item Predicate, _ int) any {
			return item.toBSON()
		})}
	}
}

func (d Condition) toBSON() bson.M {
	disjuncts := make([]any, 0, len(d))
	for _, conjunction := range d {
		if doc := conjunction.toBSON(); len(doc) > 0 {
			disjuncts = append(disjuncts, doc)
		}
	}

	switch len(disjuncts) {
	case 0:
		return nil
	case 1:
		return disjuncts[0].(bson.M)
	default:
		return bson.M{"$or": disjuncts}
	}
}

// toBSON converts Orderings to a MongoDB sort document.
func (o Orderings) toBSON() bson.D {
	ret := make(bson.D, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, bson.E{
			Key:   ordering.Column,
			Value: lo.Ternary(ordering.Direction == DirectionDESC, -1, 1),
		})
	}

	return ret
}

// ObjectIDCodec handles MongoDB ObjectID identifiers.
type ObjectIDCodec struct{}

func (ObjectIDCodec) FormatID(id any) (string, error) {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex(), nil
	case string:
		if _, err := primitive.ObjectIDFromHex(v); err != nil {
			return "", err
		}
		return v, nil
	default:
		return "", fmt.Errorf("unsupported object id type %T", id)
	}
}

func (ObjectIDCodec) ParseID(raw string) (any, error) {
	return primitive.ObjectIDFromHex(raw)
}

var (
	_ Store[struct{}] = (*MongoStore[struct{}])(nil)
	_ IDCodec         = ObjectIDCodec{}
)
