// Package catalog serves the demo product collection from a SQL database
// through gorm or from MongoDB.
package catalog

import (
	"github.com/Alp4ka/keyset"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a product row in SQL stores.
type Product struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	Category string  `gorm:"index:idx_products_category_price,priority:1" json:"category"`
	Price    float64 `gorm:"index:idx_products_category_price,priority:2;index" json:"price"`
	InStock  bool    `json:"inStock"`
}

// Document is a product in MongoDB.
type Document struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Category string             `bson:"category" json:"category"`
	Price    float64            `bson:"price" json:"price"`
	InStock  bool               `bson:"inStock" json:"inStock"`
}

// Fields a request may sort by besides the identifier.
var SortFields = []keyset.ColumnAlias{"price", "name"}

// FilterSchema allows an equality filter on category and a range filter on
// price.
var FilterSchema = keyset.FilterSchema{
	Equality: []keyset.ColumnAlias{"category"},
	Range:    "price",
}

var productGetters = keyset.Getters[Product]{
	"id":    func(p Product) any { return p.ID },
	"name":  func(p Product) any { return p.Name },
	"price": func(p Product) any { return p.Price },
}

var documentGetters = keyset.Getters[Document]{
	"id":    func(d Document) any { return d.ID },
	"name":  func(d Document) any { return d.Name },
	"price": func(d Document) any { return d.Price },
}
