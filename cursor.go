package keyset

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"
)

var _encoder = base64.RawURLEncoding

// _sortTypeTime tags anchors whose sort value was a time.Time. JSON carries
// it as an RFC 3339 string; only tagged values are parsed back.
const _sortTypeTime = "time"

// ErrMalformedCursor is returned when a cursor token cannot be decoded into
// a pagination state. Tokens are not signed: a forged but well-formed token
// is accepted.
var ErrMalformedCursor = errors.New("malformed cursor")

// Anchor identifies the boundary record a traversal resumes from.
// SortValue is nil when the traversal is sorted by the identifier.
type Anchor struct {
	ID        any
	SortValue any
}

// State is everything a traversal needs between requests. It is carried by
// the cursor token and never mutated, only replaced.
type State struct {
	Filter Filter
	Sort   Sort
	Anchor *Anchor
}

// IDCodec converts record identifiers to their cursor form and back to the
// store's native type.
type IDCodec interface {
	FormatID(id any) (string, error)
	ParseID(raw string) (any, error)
}

type (
	cursorAnchor struct {
		ID        string `json:"id"`
		SortValue any    `json:"sortValue,omitempty"`
		SortType  string `json:"sortType,omitempty"`
	}

	cursorState struct {
		Filter Filter        `json:"filter"`
		Sort   Sort          `json:"sort"`
		Anchor *cursorAnchor `json:"anchor"`
	}
)

// EncodeCursor serializes state into an opaque, URL-safe token.
func EncodeCursor(state State, codec IDCodec) (string, error) {
	if state.Anchor == nil {
		return "", fmt.Errorf("cannot encode cursor without anchor")
	}

	id, err := codec.FormatID(state.Anchor.ID)
	if err != nil {
		return "", fmt.Errorf("cannot encode cursor anchor id: %w", err)
	}

	filter := state.Filter
	if filter == nil {
		filter = Filter{}
	}

	anchor := &cursorAnchor{ID: id, SortValue: state.Anchor.SortValue}
	if _, ok := state.Anchor.SortValue.(time.Time); ok {
		anchor.SortType = _sortTypeTime
	}

	jTok, err := json.Marshal(cursorState{
		Filter: filter,
		Sort:   state.Sort,
		Anchor: anchor,
	})
	if err != nil {
		return "", fmt.Errorf("cannot marshal cursor value: %w", err)
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jTok); err != nil {
		return "", fmt.Errorf("cannot compact cursor value: %w", err)
	}

	return _encoder.EncodeToString(buf.Bytes()), nil
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// yields a nil state. Every failure wraps ErrMalformedCursor.
func DecodeCursor(token string, codec IDCodec) (*State, error) {
	if len(token) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 encoded cursor: %w", ErrMalformedCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()

	var raw cursorState
	if err = dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal json encoded cursor: %w", ErrMalformedCursor, err)
	}
	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after cursor value", ErrMalformedCursor)
	}

	if err = raw.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCursor, err)
	}

	id, err := codec.ParseID(raw.Anchor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid anchor id: %w", ErrMalformedCursor, err)
	}

	sortValue, err := raw.Anchor.sortValue()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid anchor sort value: %w", ErrMalformedCursor, err)
	}

	filter := raw.Filter
	if filter == nil {
		filter = Filter{}
	}

	return &State{
		Filter: filter,
		Sort:   raw.Sort,
		Anchor: &Anchor{ID: id, SortValue: sortValue},
	}, nil
}

// sortValue restores the sort value to the type recorded at encoding time.
func (a *cursorAnchor) sortValue() (any, error) {
	switch a.SortType {
	case "":
		return a.SortValue, nil
	case _sortTypeTime:
		raw, ok := a.SortValue.(string)
		if !ok {
			return nil, fmt.Errorf("timestamp expected, got %T", a.SortValue)
		}

		return time.Parse(time.RFC3339Nano, raw)
	default:
		return nil, fmt.Errorf("unknown sort value type '%s'", a.SortType)
	}
}

func (s *cursorState) validate() error {
	if s.Anchor == nil || s.Anchor.ID == "" {
		return fmt.Errorf("cursor has no anchor")
	}

	if s.Sort.Field == "" || !s.Sort.Dir.Valid() {
		return fmt.Errorf("invalid cursor sort '%s %s'", s.Sort.Field, s.Sort.Dir)
	}

	for _, predicate := range s.Filter {
		if !predicate.Operator.Valid() {
			return fmt.Errorf("invalid cursor operator '%s'", predicate.Operator)
		}
	}

	return nil
}

// IntIDCodec handles integer primary keys. Parsed identifiers are int64.
type IntIDCodec struct{}

func (IntIDCodec) FormatID(id any) (string, error) {
	v := reflect.ValueOf(id)
	switch {
	case v.CanInt():
		return strconv.FormatInt(v.Int(), 10), nil
	case v.CanUint():
		return strconv.FormatUint(v.Uint(), 10), nil
	default:
		return "", fmt.Errorf("unsupported integer id type %T", id)
	}
}

func (IntIDCodec) ParseID(raw string) (any, error) {
	return strconv.ParseInt(raw, 10, 64)
}

var _ IDCodec = IntIDCodec{}
