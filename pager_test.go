package keyset

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestPager(db *gorm.DB, opts ...Option) *Pager[testProduct] {
	return NewPager[testProduct](
		NewGORMStore[testProduct](db),
		IntIDCodec{},
		_testGetters,
		append([]Option{
			WithSortFields("price", "name"),
			WithFilterSchema(_testFilterSchema),
		}, opts...)...,
	)
}

func ids(items []testProduct) []uint {
	return lo.Map(items, func(item testProduct, _ int) uint { return item.ID })
}

func idRange(from, to uint) []uint {
	ret := make([]uint, 0, to-from+1)
	for i := from; i <= to; i++ {
		ret = append(ret, i)
	}

	return ret
}

// canonical sorts products by price then id in dir.
func canonical(products []testProduct, dir Direction) []uint {
	sorted := slices.Clone(products)
	slices.SortFunc(sorted, func(a, b testProduct) int {
		c := cmp.Or(cmp.Compare(a.Price, b.Price), cmp.Compare(a.ID, b.ID))
		return lo.Ternary(dir == DirectionDESC, -c, c)
	})

	return ids(sorted)
}

// traverse follows nextCursor from the first page until the end. sizes are
// used in turn as page sizes.
func traverse(t *testing.T, pager *Pager[testProduct], first Request, sizes ...int) []uint {
	t.Helper()

	var collected []uint
	req := first
	for i := 0; ; i++ {
		if len(sizes) > 0 {
			req.PageSize = sizes[i%len(sizes)]
		}

		page, err := pager.Paginate(context.Background(), req)
		require.NoError(t, err)
		collected = append(collected, ids(page.Items)...)

		if page.NextCursor == nil {
			require.False(t, page.HasNext)
			return collected
		}
		require.True(t, page.HasNext)
		require.Less(t, i, 1000, "traversal does not terminate")

		req = Request{Cursor: *page.NextCursor}
	}
}

func Test_Pager_Scenarios_IdentifierOrder(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 100, func(i int) testProduct {
		return testProduct{Category: lo.Ternary(i%2 == 1, "electronics", "books"), Price: float64(i % 17)}
	})
	pager := newTestPager(db)
	ctx := context.Background()

	// (a) first page
	page, err := pager.Paginate(ctx, Request{PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, idRange(1, 10), ids(page.Items))
	require.False(t, page.HasPrevious)
	require.True(t, page.HasNext)
	require.Nil(t, page.PreviousCursor)
	require.NotNil(t, page.NextCursor)
	require.Equal(t, Sort{Field: "id", Dir: DirectionASC}, page.Sort)
	require.Equal(t, NavNext, page.Direction)
	require.Equal(t, 10, page.PageSize)

	// (b) nine more pages reach the end
	for i := 0; i < 9; i++ {
		page, err = pager.Paginate(ctx, Request{Cursor: *page.NextCursor, PageSize: 10})
		require.NoError(t, err)
	}
	require.Equal(t, idRange(91, 100), ids(page.Items))
	require.False(t, page.HasNext)
	require.Nil(t, page.NextCursor)
	require.True(t, page.HasPrevious)

	// (c) one step back
	page, err = pager.Paginate(ctx, Request{Cursor: *page.PreviousCursor, Direction: "prev", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, idRange(81, 90), ids(page.Items))
	require.Equal(t, NavPrev, page.Direction)
	require.True(t, page.HasPrevious)
	require.True(t, page.HasNext)
}

func Test_Pager_BackToFirstPage(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 30, func(i int) testProduct { return testProduct{Category: "books"} })
	pager := newTestPager(db)
	ctx := context.Background()

	first, err := pager.Paginate(ctx, Request{PageSize: 10})
	require.NoError(t, err)
	second, err := pager.Paginate(ctx, Request{Cursor: *first.NextCursor, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, idRange(11, 20), ids(second.Items))

	back, err := pager.Paginate(ctx, Request{Cursor: *second.PreviousCursor, Direction: "prev", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, ids(first.Items), ids(back.Items))
	require.False(t, back.HasPrevious, "no record precedes the first page")
	require.Nil(t, back.PreviousCursor)
	require.True(t, back.HasNext)
}

func Test_Pager_Scenario_AllTied(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 25, func(i int) testProduct { return testProduct{Category: "books", Price: 10} })
	pager := newTestPager(db)
	ctx := context.Background()

	// (d) five forward pages of five tied records each
	seen := map[uint]bool{}
	var collected []uint
	req := Request{SortField: "price", SortDir: "asc", PageSize: 5}
	for i := 0; i < 5; i++ {
		page, err := pager.Paginate(ctx, req)
		require.NoError(t, err)
		require.Len(t, page.Items, 5)

		for _, id := range ids(page.Items) {
			require.False(t, seen[id], "record %d repeated", id)
			seen[id] = true
		}
		collected = append(collected, ids(page.Items)...)

		require.Equal(t, i < 4, page.HasNext)
		require.Equal(t, i > 0, page.HasPrevious)
		if page.NextCursor != nil {
			req = Request{Cursor: *page.NextCursor, PageSize: 5}
		}
	}

	require.Equal(t, idRange(1, 25), collected, "ties are ordered by identifier")
}

func Test_Pager_Scenario_EmptyResult(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 20, func(i int) testProduct {
		return testProduct{Category: lo.Ternary(i%2 == 0, "books", "electronics"), Price: float64(i)}
	})
	pager := newTestPager(db)

	// (e) books are all cheaper than 20
	page, err := pager.Paginate(context.Background(), Request{
		Filter: FilterParams{
			Equal: map[string]string{"category": "books"},
			Range: RangeParam{Op: "gte", Value: "21"},
		},
	})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.NotNil(t, page.Items)
	require.False(t, page.HasNext)
	require.False(t, page.HasPrevious)
	require.Nil(t, page.NextCursor)
	require.Nil(t, page.PreviousCursor)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"pageSize": 10,
		"direction": "next",
		"sort": {"field": "id", "dir": "ASC"},
		"filter": [{"c": "category", "o": "=", "v": "books"}, {"c": "price", "o": ">=", "v": 21}],
		"items": [],
		"hasNext": false,
		"hasPrevious": false,
		"nextCursor": null,
		"previousCursor": null
	}`, string(raw))
}

func Test_Pager_FullTraversal_WithTies(t *testing.T) {
	db := newSQLiteDB(t)
	products := seedProducts(t, db, 57, func(i int) testProduct {
		return testProduct{Category: lo.Ternary(i%3 == 0, "books", "electronics"), Price: float64(i % 4)}
	})
	pager := newTestPager(db)

	for _, dir := range []Direction{DirectionASC, DirectionDESC} {
		t.Run(string(dir), func(t *testing.T) {
			got := traverse(t, pager, Request{SortField: "price", SortDir: string(dir), PageSize: 4})
			require.Equal(t, canonical(products, dir), got)
		})
	}

	t.Run("filtered", func(t *testing.T) {
		books := lo.Filter(products, func(p testProduct, _ int) bool { return p.Category == "books" && p.Price > 0 })
		got := traverse(t, pager, Request{
			SortField: "price",
			SortDir:   "desc",
			PageSize:  3,
			Filter: FilterParams{
				Equal: map[string]string{"category": "books"},
				Range: RangeParam{Op: "gt", Value: "0"},
			},
		})
		require.Equal(t, canonical(books, DirectionDESC), got)
	})
}

func Test_Pager_BackwardTraversal_MirrorsForward(t *testing.T) {
	db := newSQLiteDB(t)
	products := seedProducts(t, db, 23, func(i int) testProduct { return testProduct{Price: float64(i % 3)} })
	pager := newTestPager(db)
	ctx := context.Background()

	// walk to the last page
	page, err := pager.Paginate(ctx, Request{SortField: "price", SortDir: "desc", PageSize: 5})
	require.NoError(t, err)
	for page.NextCursor != nil {
		page, err = pager.Paginate(ctx, Request{Cursor: *page.NextCursor, PageSize: 5})
		require.NoError(t, err)
	}

	// and all the way back
	collected := ids(page.Items)
	for page.PreviousCursor != nil {
		page, err = pager.Paginate(ctx, Request{Cursor: *page.PreviousCursor, Direction: "prev", PageSize: 5})
		require.NoError(t, err)
		collected = append(slices.Clone(ids(page.Items)), collected...)
	}

	require.False(t, page.HasPrevious)
	require.Equal(t, canonical(products, DirectionDESC), collected)
}

func Test_Pager_Reversibility(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 40, func(i int) testProduct { return testProduct{Price: float64(i % 5)} })
	pager := newTestPager(db)
	ctx := context.Background()

	page, err := pager.Paginate(ctx, Request{SortField: "price", PageSize: 6})
	require.NoError(t, err)

	for step := 0; step < 4; step++ {
		page, err = pager.Paginate(ctx, Request{Cursor: *page.NextCursor, PageSize: 6})
		require.NoError(t, err)

		prev, err := pager.Paginate(ctx, Request{Cursor: *page.PreviousCursor, Direction: "prev", PageSize: 6})
		require.NoError(t, err)
		require.NotNil(t, prev.NextCursor)

		again, err := pager.Paginate(ctx, Request{Cursor: *prev.NextCursor, PageSize: 6})
		require.NoError(t, err)
		require.Equal(t, ids(page.Items), ids(again.Items), "step %d", step)
	}
}

func Test_Pager_ExactBoundaries(t *testing.T) {
	db := newSQLiteDB(t)
	products := seedProducts(t, db, 12, func(i int) testProduct {
		return testProduct{Category: lo.Ternary(i <= 6, "books", "electronics"), Price: float64(i % 2)}
	})
	pager := newTestPager(db)
	ctx := context.Background()

	// exactly one full page of books: nothing before, nothing after
	page, err := pager.Paginate(ctx, Request{
		PageSize:  6,
		SortField: "price",
		Filter:    FilterParams{Equal: map[string]string{"category": "books"}},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 6)
	require.False(t, page.HasNext)
	require.False(t, page.HasPrevious)

	// every page of the unfiltered traversal reports boundaries from the data
	order := canonical(products, DirectionASC)
	req := Request{SortField: "price", PageSize: 5}
	offset := 0
	for {
		page, err = pager.Paginate(ctx, req)
		require.NoError(t, err)

		require.Equal(t, offset > 0, page.HasPrevious)
		require.Equal(t, offset+len(page.Items) < len(order), page.HasNext)
		offset += len(page.Items)

		if page.NextCursor == nil {
			break
		}
		req = Request{Cursor: *page.NextCursor, PageSize: 5}
	}
	require.Equal(t, len(order), offset)
}

func Test_Pager_FilterPinning(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 30, func(i int) testProduct {
		return testProduct{Category: lo.Ternary(i%2 == 0, "books", "electronics"), Price: float64(i)}
	})
	pager := newTestPager(db)
	ctx := context.Background()

	first, err := pager.Paginate(ctx, Request{
		PageSize: 5,
		Filter:   FilterParams{Equal: map[string]string{"category": "books"}},
	})
	require.NoError(t, err)

	pinned, err := pager.Paginate(ctx, Request{
		Cursor:    *first.NextCursor,
		PageSize:  5,
		SortField: "price",
		SortDir:   "desc",
		Filter: FilterParams{
			Equal: map[string]string{"category": "electronics"},
			Range: RangeParam{Op: "lt", Value: "3"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, first.Filter, pinned.Filter)
	require.Equal(t, first.Sort, pinned.Sort)
	require.Equal(t, []uint{12, 14, 16, 18, 20}, ids(pinned.Items))
}

func Test_Pager_PageSizeChanges(t *testing.T) {
	db := newSQLiteDB(t)
	products := seedProducts(t, db, 64, func(i int) testProduct { return testProduct{Price: float64(i % 6)} })
	pager := newTestPager(db)

	got := traverse(t, pager, Request{SortField: "price", SortDir: "desc"}, 3, 7, 1, 10, 2)
	require.Equal(t, canonical(products, DirectionDESC), got)
}

func Test_Pager_TimestampLikeStringSort(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 12, func(i int) testProduct {
		return testProduct{
			Name:     fmt.Sprintf("2024-01-01T%02d:00:00Z", i),
			Category: lo.Ternary(i%2 == 0, "2024-01-01T00:00:00Z", "other"),
		}
	})
	pager := newTestPager(db)

	got := traverse(t, pager, Request{SortField: "name", PageSize: 5})
	require.Equal(t, idRange(1, 12), got)

	got = traverse(t, pager, Request{SortField: "name", SortDir: "desc", PageSize: 5})
	want := idRange(1, 12)
	slices.Reverse(want)
	require.Equal(t, want, got)

	got = traverse(t, pager, Request{
		SortField: "name",
		PageSize:  2,
		Filter:    FilterParams{Equal: map[string]string{"category": "2024-01-01T00:00:00Z"}},
	})
	require.Equal(t, []uint{2, 4, 6, 8, 10, 12}, got)
}

func Test_Pager_QualifiedColumns(t *testing.T) {
	db := newSQLiteDB(t)
	products := seedProducts(t, db, 25, func(i int) testProduct {
		return testProduct{Category: lo.Ternary(i%2 == 0, "books", "electronics"), Price: float64(i % 4)}
	})
	pager := newTestPager(db,
		WithColumns(ColumnMapping{"price": "products.price", "category": "products.category"}),
		WithIDField("id", "products.id"),
	)

	page, err := pager.Paginate(context.Background(), Request{SortField: "price", PageSize: 4})
	require.NoError(t, err)
	require.Equal(t, Sort{Field: "price", Dir: DirectionASC}, page.Sort)
	require.Equal(t, canonical(products, DirectionASC)[:4], ids(page.Items))

	books := lo.Filter(products, func(p testProduct, _ int) bool { return p.Category == "books" && p.Price >= 1 })
	got := traverse(t, pager, Request{
		SortField: "price",
		SortDir:   "desc",
		PageSize:  3,
		Filter: FilterParams{
			Equal: map[string]string{"category": "books"},
			Range: RangeParam{Op: "gte", Value: "1"},
		},
	})
	require.Equal(t, canonical(books, DirectionDESC), got)
}

func Test_Pager_NonPositiveDefaultPageSize(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 3, func(i int) testProduct { return testProduct{} })

	tests := []struct {
		name        string
		defaultSize int
		maxSize     int
	}{
		{"zero default", 0, 100},
		{"negative default", -5, 100},
		{"zero max", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pager := newTestPager(db, WithPageSize(tt.defaultSize, tt.maxSize))

			var page *Page[testProduct]
			require.NotPanics(t, func() {
				var err error
				page, err = pager.Paginate(context.Background(), Request{})
				require.NoError(t, err)
			})
			require.Equal(t, 1, page.PageSize)
			require.Equal(t, []uint{1}, ids(page.Items))
			require.True(t, page.HasNext)
		})
	}
}

func Test_Pager_UnknownSortFieldDegrades(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 5, func(i int) testProduct { return testProduct{Price: float64(5 - i)} })
	pager := newTestPager(db)

	page, err := pager.Paginate(context.Background(), Request{SortField: "prise", SortDir: "desc"})
	require.NoError(t, err)
	require.Equal(t, Sort{Field: "id", Dir: DirectionDESC}, page.Sort)
	require.Equal(t, []uint{5, 4, 3, 2, 1}, ids(page.Items))
}

func Test_Pager_MalformedCursor(t *testing.T) {
	db := newSQLiteDB(t)
	pager := newTestPager(db)

	forged, err := EncodeCursor(State{
		Filter: Filter{{Column: "secret", Operator: OperatorEQ, Value: "x"}},
		Sort:   Sort{Field: "id", Dir: DirectionASC},
		Anchor: &Anchor{ID: int64(1)},
	}, IntIDCodec{})
	require.NoError(t, err)

	operatorDocument, err := EncodeCursor(State{
		Filter: Filter{{Column: "category", Operator: OperatorEQ, Value: map[string]any{"$ne": "zzz"}}},
		Sort:   Sort{Field: "id", Dir: DirectionASC},
		Anchor: &Anchor{ID: int64(1)},
	}, IntIDCodec{})
	require.NoError(t, err)

	for _, token := range []string{"garbage!", forged, operatorDocument} {
		_, err = pager.Paginate(context.Background(), Request{Cursor: token})
		require.ErrorIs(t, err, ErrMalformedCursor)
	}
}

func Test_Pager_MissingGetter(t *testing.T) {
	db := newSQLiteDB(t)
	seedProducts(t, db, 3, func(i int) testProduct { return testProduct{} })

	pager := NewPager[testProduct](
		NewGORMStore[testProduct](db),
		IntIDCodec{},
		Getters[testProduct]{"id": func(p testProduct) any { return p.ID }},
		WithSortFields("price"),
	)

	_, err := pager.Paginate(context.Background(), Request{SortField: "price"})
	require.Error(t, err)
}

type stubStore struct {
	records   []testProduct
	findErr   error
	existsErr error
	finds     int
}

func (s *stubStore) Find(_ context.Context, _ Query) ([]testProduct, error) {
	s.finds++
	return s.records, s.findErr
}

func (s *stubStore) Exists(_ context.Context, _ Query) (bool, error) {
	return false, s.existsErr
}

func Test_Pager_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("socket timeout")

	pager := NewPager[testProduct](&stubStore{findErr: boom}, IntIDCodec{}, _testGetters)
	_, err := pager.Paginate(context.Background(), Request{})
	require.ErrorIs(t, err, boom)

	pager = NewPager[testProduct](&stubStore{records: []testProduct{{ID: 1}}, existsErr: boom}, IntIDCodec{}, _testGetters)
	_, err = pager.Paginate(context.Background(), Request{})
	require.ErrorIs(t, err, boom)
}

func Test_Pager_EmptyPageSkipsBoundaryChecks(t *testing.T) {
	store := &stubStore{existsErr: errors.New("must not be called")}
	pager := NewPager[testProduct](store, IntIDCodec{}, _testGetters)

	page, err := pager.Paginate(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, store.finds)
	require.Empty(t, page.Items)
	require.False(t, page.HasNext)
	require.False(t, page.HasPrevious)
}
