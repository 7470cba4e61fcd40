// Package keyset provides bidirectional keyset (cursor-based) pagination.
//
// # Overview
//
// A Pager serves pages of records sorted by one allow-listed field plus the
// record identifier as a tie-breaker. Navigation never uses OFFSET: each page
// is a range query relative to an anchor record, and two existence queries
// around the page report exactly whether more records exist on either side.
//
// Key concepts
//   - State: filter, sort and anchor of a traversal, carried by an opaque
//     URL-safe cursor token (EncodeCursor, DecodeCursor). Tokens are not
//     signed.
//   - Canonical order: the sort field in the requested direction, then the
//     identifier in the same direction. Backward pages are scanned in the
//     inverted order and reversed before they are returned.
//   - Store: the record store collaborator. GORMStore and MongoStore are
//     provided.
//   - Getters: maps field aliases to values for building anchors.
//
// Usage
//
//	pager := keyset.NewPager[Product](
//		keyset.NewGORMStore[Product](db),
//		keyset.IntIDCodec{},
//		keyset.Getters[Product]{
//			"id":    func(p Product) any { return p.ID },
//			"price": func(p Product) any { return p.Price },
//		},
//		keyset.WithSortFields("price"),
//		keyset.WithFilterSchema(keyset.FilterSchema{Equality: []string{"category"}, Range: "price"}),
//	)
//
//	page, err := pager.Paginate(ctx, keyset.Request{SortField: "price", PageSize: 20})
//	// follow page.NextCursor / page.PreviousCursor with Request.Cursor
package keyset
