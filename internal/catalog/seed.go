package catalog

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// SeedSize is the number of products the seed command writes by default.
const SeedSize = 100

// Generate builds n demo products. Categories alternate between books and
// electronics and every third product is in stock. Prices are random with
// two decimals; with ties they repeat over five values so that most pages
// hold equal sort keys.
func Generate(n int, ties bool, rnd *rand.Rand) []Product {
	products := make([]Product, 0, n)
	for i := 0; i < n; i++ {
		price := math.Round(rnd.Float64()*10000) / 100
		if ties {
			price = float64(i%5+1) * 10
		}

		category := "books"
		if i%2 == 1 {
			category = "electronics"
		}

		products = append(products, Product{
			Name:     fmt.Sprintf("Product %d", i),
			Category: category,
			Price:    price,
			InStock:  i%3 == 0,
		})
	}

	return products
}
