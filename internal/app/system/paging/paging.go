// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Request selects one keyset page. Before and After are opaque cursors
// produced by a previous Page; at most one is expected to be set, and
// Before wins if both are.
type Request struct {
	Before string
	After  string
	Limit  int
}

// FromRequest reads ?before=, ?after= and ?limit= from the query string.
func FromRequest(r *http.Request) Request {
	p := Request{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
	}
	if n, err := strconv.Atoi(query.Get(r, "limit")); err == nil {
		p.Limit = n
	}
	return p
}

// Size returns Limit clamped to [1, MaxLimit], or DefaultLimit when unset.
func (p Request) Size() int {
	switch {
	case p.Limit < 1:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	}
	return p.Limit
}

func (p Request) backward() bool { return p.Before != "" }

// FindOptions sorts by sortField then _id in the page direction and asks
// for one row more than the page size, so Finish can tell whether the
// listing continues.
func (p Request) FindOptions(sortField string) *options.FindOptions {
	order := 1
	if p.backward() {
		order = -1
	}
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: order}, {Key: "_id", Value: order}}).
		SetLimit(int64(p.Size() + 1))
}

// Window returns the filter clause that starts the page past its cursor.
// It is nil on the first page and when the cursor does not decode.
func (p Request) Window(sortField string) bson.M {
	raw, dir := p.After, "gt"
	if p.backward() {
		raw, dir = p.Before, "lt"
	}
	if raw == "" {
		return nil
	}
	c, ok := wafflemongo.DecodeCursor(raw)
	if !ok {
		return nil
	}
	return wafflemongo.KeysetWindow(sortField, dir, c.CI, c.ID)
}

// Page is one window of a listing in display order.
type Page[T any] struct {
	Items []T
	Prev  string // cursor for the page before, empty on the first page
	Next  string // cursor for the page after, empty on the last page
}

// Finish turns rows fetched with FindOptions into a Page. key returns the
// sort value and id of a row, which become the cursors.
func Finish[T any](p Request, rows []T, key func(T) (string, primitive.ObjectID)) Page[T] {
	more := len(rows) > p.Size()
	if more {
		// The look-ahead row is last in fetch order either way.
		rows = rows[:p.Size()]
	}
	if rows == nil {
		rows = []T{}
	}

	hasPrev, hasNext := p.After != "", more
	if p.backward() {
		reverse(rows)
		hasPrev, hasNext = more, true
	}

	page := Page[T]{Items: rows}
	if len(rows) == 0 {
		return page
	}
	if hasPrev {
		page.Prev = wafflemongo.EncodeCursor(key(rows[0]))
	}
	if hasNext {
		page.Next = wafflemongo.EncodeCursor(key(rows[len(rows)-1]))
	}
	return page
}

func reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
