// Package testutil holds in-memory fakes of the repositories and
// infrastructure ports so service tests run without MongoDB or Redis.
package testutil

import (
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clone deep-copies v through its bson encoding, so fakes hand out
// values detached from their storage like the real driver does.
func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

// table is a goroutine-safe map of documents keyed by ObjectID,
// remembering insertion order.
type table[T any] struct {
	mu    sync.Mutex
	rows  map[primitive.ObjectID]*T
	order []primitive.ObjectID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[primitive.ObjectID]*T)}
}

func (t *table[T]) put(id primitive.ObjectID, v *T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = clone(v)
}

func (t *table[T]) get(id primitive.ObjectID) (*T, bool) {
	v, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

func (t *table[T]) remove(id primitive.ObjectID) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// filter returns clones of matching rows in insertion order.
func (t *table[T]) filter(match func(*T) bool) []*T {
	out := make([]*T, 0)
	for _, id := range t.order {
		if v := t.rows[id]; match(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

// removeWhere deletes matching rows and returns how many went.
func (t *table[T]) removeWhere(match func(*T) bool) int64 {
	var n int64
	for _, id := range append([]primitive.ObjectID{}, t.order...) {
		if match(t.rows[id]) {
			t.remove(id)
			n++
		}
	}
	return n
}

func page[T any](items []T, skip int64, limit int) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := int(skip) + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func sortStable[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
