package keyset

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Getters maps field aliases to value extractors. The pager needs one for the
// identifier alias and one for every sortable alias to build anchors.
// Example:
//
//	keyset.Getters[Product]{
//		"id":    func(p Product) any { return p.ID },
//		"price": func(p Product) any { return p.Price },
//	}
type Getters[T any] map[ColumnAlias]func(T) any

// Page is the result of one Paginate call. Items are always in canonical
// order, whatever the navigation direction. A cursor is nil when no record
// exists in its direction.
type Page[T any] struct {
	PageSize       int          `json:"pageSize"`
	Direction      NavDirection `json:"direction"`
	Sort           Sort         `json:"sort"`
	Filter         Filter       `json:"filter"`
	Items          []T          `json:"items"`
	HasNext        bool         `json:"hasNext"`
	HasPrevious    bool         `json:"hasPrevious"`
	NextCursor     *string      `json:"nextCursor"`
	PreviousCursor *string      `json:"previousCursor"`
}

type config struct {
	idField     ColumnAlias
	columns     ColumnMapping
	sortFields  []ColumnAlias
	filter      FilterSchema
	pageSize    int
	maxPageSize int
	log         logrus.FieldLogger
}

// Option configures a Pager.
type Option func(*config)

// WithIDField sets the identifier alias and its store column. Defaults to
// "id" for both.
func WithIDField(alias ColumnAlias, column string) Option {
	return func(c *config) {
		c.idField = alias
		c.columns[alias] = column
	}
}

// WithSortFields allow-lists aliases for sorting. The identifier is always
// allowed.
func WithSortFields(aliases ...ColumnAlias) Option {
	return func(c *config) {
		c.sortFields = append(c.sortFields, aliases...)
	}
}

// WithColumns maps aliases to store columns. Unmapped aliases are used as
// column names verbatim.
func WithColumns(mapping ColumnMapping) Option {
	return func(c *config) {
		for alias, column := range mapping {
			c.columns[alias] = column
		}
	}
}

// WithFilterSchema sets the predicates a request may filter on.
func WithFilterSchema(schema FilterSchema) Option {
	return func(c *config) {
		c.filter = schema
	}
}

// WithPageSize sets the default and the maximum page size.
func WithPageSize(defaultSize, maxSize int) Option {
	return func(c *config) {
		c.pageSize = defaultSize
		c.maxPageSize = maxSize
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// Pager serves keyset pages from a Store. It holds no per-request state and
// is safe for concurrent use.
type Pager[T any] struct {
	config
	store   Store[T]
	codec   IDCodec
	getters Getters[T]
}

func NewPager[T any](store Store[T], codec IDCodec, getters Getters[T], opts ...Option) *Pager[T] {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	cfg := config{
		idField:     "id",
		columns:     ColumnMapping{"id": "id"},
		pageSize:    DefaultPageSize,
		maxPageSize: MaxPageSize,
		log:         discard,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Pager[T]{
		config:  cfg,
		store:   store,
		codec:   codec,
		getters: getters,
	}
}

// plan holds the per-request values resolved before any query is issued.
type plan struct {
	sort       Sort
	filter     Filter
	sortColumn string
	idColumn   string
	where      Conjunction
}

// Paginate serves one page. The request cursor, when present, pins the sort
// and the filter of the traversal. Malformed cursors fail with an error
// wrapping ErrMalformedCursor; store failures are returned wrapped and are
// never retried.
func (p *Pager[T]) Paginate(ctx context.Context, req Request) (*Page[T], error) {
	state, err := DecodeCursor(req.Cursor, p.codec)
	if err != nil {
		return nil, err
	}

	if state != nil {
		if err = state.Filter.validate(p.filter); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCursor, err)
		}
	}

	nav := ParseNavDirection(req.Direction)
	pageSize := NormalizePageSize(req.PageSize, p.pageSize, p.maxPageSize)
	pl := p.plan(req, state)

	var anchor *Anchor
	if state != nil {
		anchor = state.Anchor
	}

	items, err := p.scan(ctx, pl, nav, anchor, pageSize)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{
		PageSize:  pageSize,
		Direction: nav,
		Sort:      pl.sort,
		Filter:    pl.filter,
		Items:     items,
	}
	if len(items) == 0 {
		return page, nil
	}

	first, err := p.anchorOf(pl.sort, items[0])
	if err != nil {
		return nil, err
	}
	last, err := p.anchorOf(pl.sort, items[len(items)-1])
	if err != nil {
		return nil, err
	}

	page.HasPrevious, page.HasNext, err = p.boundaries(ctx, pl, first, last)
	if err != nil {
		return nil, err
	}

	if page.HasNext {
		if page.NextCursor, err = p.cursor(pl, last); err != nil {
			return nil, err
		}
	}
	if page.HasPrevious {
		if page.PreviousCursor, err = p.cursor(pl, first); err != nil {
			return nil, err
		}
	}

	return page, nil
}

func (p *Pager[T]) plan(req Request, state *State) plan {
	var embedded *Sort
	if state != nil {
		embedded = &state.Sort
	}

	sort := ResolveSort(req.SortField, req.SortDir, embedded, p.sortFields, p.idField)
	if requested := strings.TrimSpace(req.SortField); embedded == nil && requested != "" && requested != sort.Field {
		p.log.WithFields(logrus.Fields{
			"field":   requested,
			"closest": closestAlias(requested, append([]ColumnAlias{p.idField}, p.sortFields...)),
		}).Debug("unknown sort field, sorting by identifier")
	}

	filter := ResolveFilter(req.Filter, state, p.filter)

	return plan{
		sort:       sort,
		filter:     filter,
		sortColumn: resolveColumn(p.columns, sort.Field),
		idColumn:   resolveColumn(p.columns, p.idField),
		where:      filter.conjunction(p.columns),
	}
}

// scan fetches one page around anchor and returns it in canonical order.
// One extra record is requested; it only hints that the scanned direction
// continues and is dropped.
func (p *Pager[T]) scan(ctx context.Context, pl plan, nav NavDirection, anchor *Anchor, pageSize int) ([]T, error) {
	q := Query{
		Where:     pl.where,
		Relative:  relativeCondition(pl.sortColumn, pl.idColumn, pl.sort.Dir, anchor, nav == NavNext),
		Orderings: scanOrderings(pl.sortColumn, pl.idColumn, pl.sort.Dir, nav),
		Limit:     pageSize + 1,
	}

	if err := q.Orderings.validate(); err != nil {
		return nil, fmt.Errorf("cannot fetch page: %w", err)
	}

	records, err := p.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch page: %w", err)
	}

	hasMore := len(records) > pageSize
	if hasMore {
		records = records[:pageSize]
	}

	p.log.WithFields(logrus.Fields{
		"direction": nav,
		"sort":      pl.sort.Field,
		"dir":       pl.sort.Dir,
		"fetched":   len(records),
		"more":      hasMore,
	}).Debug("page scanned")

	if nav == NavPrev {
		slices.Reverse(records)
	}

	return lo.Ternary(records == nil, []T{}, records), nil
}

func (p *Pager[T]) anchorOf(sort Sort, item T) (*Anchor, error) {
	idGetter, ok := p.getters[p.idField]
	if !ok {
		return nil, fmt.Errorf("cannot find getter for identifier '%s'", p.idField)
	}

	anchor := &Anchor{ID: idGetter(item)}
	if sort.Field == p.idField {
		return anchor, nil
	}

	getter, ok := p.getters[sort.Field]
	if !ok {
		return nil, fmt.Errorf("cannot find getter for column '%s' met in ordering", sort.Field)
	}
	anchor.SortValue = getter(item)

	return anchor, nil
}

func (p *Pager[T]) cursor(pl plan, anchor *Anchor) (*string, error) {
	token, err := EncodeCursor(State{Filter: pl.filter, Sort: pl.sort, Anchor: anchor}, p.codec)
	if err != nil {
		return nil, fmt.Errorf("cannot build cursor: %w", err)
	}

	return &token, nil
}
