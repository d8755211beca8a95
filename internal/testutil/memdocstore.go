package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/events"
)

// MemDocStore is an in-memory docstore.Store for handler and store tests.
// It mirrors the gateway's semantics (merge-upsert Set, fail-if-missing
// Update, silent Delete, generated ids on Add) and counts calls per method
// so tests can assert how many reads an operation performed.
type MemDocStore struct {
	mu   sync.Mutex
	data map[string]map[string]docstore.Document
	bus  *events.Bus
	seq  int

	// Call counters, guarded by mu.
	GetCalls    int
	GetAllCalls int
	SetCalls    int
	AddCalls    int
	UpdateCalls int
	DeleteCalls int
	QueryCalls  int

	// When non-nil, the corresponding method returns this error.
	FailGet    error
	FailGetAll error
	FailSet    error
	FailAdd    error
	FailUpdate error
	FailDelete error

	// Clock for gateway-owned timestamps. Defaults to time.Now.
	Now func() time.Time
}

var _ docstore.Store = (*MemDocStore)(nil)

// NewMemDocStore returns an empty store. The bus may be nil.
func NewMemDocStore(bus *events.Bus) *MemDocStore {
	return &MemDocStore{
		data: make(map[string]map[string]docstore.Document),
		bus:  bus,
		Now:  time.Now,
	}
}

// Seed places a document directly in a collection without counting a call
// or publishing an event.
func (m *MemDocStore) Seed(collection, id string, doc docstore.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll(collection)[id] = cloneDoc(doc)
}

// Stored returns the raw stored document, or nil. For assertions only.
func (m *MemDocStore) Stored(collection, id string) docstore.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.coll(collection)[id]
	if !ok {
		return nil
	}
	return cloneDoc(doc)
}

// Len returns the number of documents in a collection.
func (m *MemDocStore) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coll(collection))
}

func (m *MemDocStore) Set(ctx context.Context, collection, id string, data docstore.Document) error {
	m.mu.Lock()
	m.SetCalls++
	if m.FailSet != nil {
		m.mu.Unlock()
		return m.FailSet
	}

	c := m.coll(collection)
	now := m.Now().UTC()
	existing, ok := c[id]
	if !ok {
		existing = docstore.Document{docstore.FieldCreatedAt: now}
	}
	for k, v := range data {
		if reservedField(k) {
			continue
		}
		existing[k] = v
	}
	existing[docstore.FieldUpdatedAt] = now
	c[id] = existing
	m.mu.Unlock()

	m.publish(collection, events.OpUpdated, id)
	return nil
}

func (m *MemDocStore) Add(ctx context.Context, collection string, data docstore.Document) (string, error) {
	m.mu.Lock()
	m.AddCalls++
	if m.FailAdd != nil {
		m.mu.Unlock()
		return "", m.FailAdd
	}

	m.seq++
	id := fmt.Sprintf("gen-%d", m.seq)
	now := m.Now().UTC()
	doc := docstore.Document{
		docstore.FieldCreatedAt: now,
		docstore.FieldUpdatedAt: now,
	}
	for k, v := range data {
		if reservedField(k) {
			continue
		}
		doc[k] = v
	}
	m.coll(collection)[id] = doc
	m.mu.Unlock()

	m.publish(collection, events.OpCreated, id)
	return id, nil
}

func (m *MemDocStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.FailGet != nil {
		return nil, m.FailGet
	}

	doc, ok := m.coll(collection)[id]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return annotated(doc, id), nil
}

func (m *MemDocStore) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetAllCalls++
	if m.FailGetAll != nil {
		return nil, m.FailGetAll
	}

	c := m.coll(collection)
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]docstore.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, annotated(c[id], id))
	}
	return docs, nil
}

func (m *MemDocStore) Update(ctx context.Context, collection, id string, data docstore.Document) error {
	m.mu.Lock()
	m.UpdateCalls++
	if m.FailUpdate != nil {
		m.mu.Unlock()
		return m.FailUpdate
	}

	c := m.coll(collection)
	existing, ok := c[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("update %s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	for k, v := range data {
		if reservedField(k) {
			continue
		}
		existing[k] = v
	}
	existing[docstore.FieldUpdatedAt] = m.Now().UTC()
	m.mu.Unlock()

	m.publish(collection, events.OpUpdated, id)
	return nil
}

func (m *MemDocStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	m.DeleteCalls++
	if m.FailDelete != nil {
		m.mu.Unlock()
		return m.FailDelete
	}
	delete(m.coll(collection), id)
	m.mu.Unlock()

	m.publish(collection, events.OpDeleted, id)
	return nil
}

// Query evaluates conditions in memory. It supports the same operators as
// the gateway; values are compared with == except for the ordered operators,
// which support strings and time.Time (enough for the collections under test).
func (m *MemDocStore) Query(ctx context.Context, collection string, conds []docstore.Condition, opts *docstore.QueryOptions) ([]docstore.Document, error) {
	m.mu.Lock()
	m.QueryCalls++
	c := m.coll(collection)
	candidates := make([]docstore.Document, 0, len(c))
	for id, doc := range c {
		candidates = append(candidates, annotated(doc, id))
	}
	m.mu.Unlock()

	matched := candidates[:0]
	for _, doc := range candidates {
		ok, err := matchesAll(doc, conds)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if opts != nil && opts.OrderBy != "" {
		field, desc := opts.OrderBy, opts.Descending
		sort.SliceStable(matched, func(i, j int) bool {
			a, _ := matched[i][field].(string)
			b, _ := matched[j][field].(string)
			if desc {
				return a > b
			}
			return a < b
		})
	}
	if opts != nil && opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	// Deterministic order when no explicit sort was requested.
	if opts == nil || opts.OrderBy == "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].ID() < matched[j].ID()
		})
	}
	return matched, nil
}

func matchesAll(doc docstore.Document, conds []docstore.Condition) (bool, error) {
	for _, c := range conds {
		v := doc[c.Field]
		switch c.Op {
		case "==":
			if v != c.Value {
				return false, nil
			}
		case "!=":
			if v == c.Value {
				return false, nil
			}
		case "<", "<=", ">", ">=":
			ord, ok := ordered(v, c.Value)
			if !ok {
				return false, nil
			}
			switch c.Op {
			case "<":
				if ord >= 0 {
					return false, nil
				}
			case "<=":
				if ord > 0 {
					return false, nil
				}
			case ">":
				if ord <= 0 {
					return false, nil
				}
			case ">=":
				if ord < 0 {
					return false, nil
				}
			}
		case "in":
			vals, _ := c.Value.([]any)
			found := false
			for _, candidate := range vals {
				if v == candidate {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		case "array-contains":
			items, _ := v.([]any)
			found := false
			for _, item := range items {
				if item == c.Value {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q on field %q", c.Op, c.Field)
		}
	}
	return true, nil
}

// ordered compares two values of the same comparable kind. Strings and
// time.Time cover the collections under test.
func ordered(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (m *MemDocStore) coll(name string) map[string]docstore.Document {
	c, ok := m.data[name]
	if !ok {
		c = make(map[string]docstore.Document)
		m.data[name] = c
	}
	return c
}

func (m *MemDocStore) publish(collection string, op events.Operation, id string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.Event{Collection: collection, Operation: op, DocID: id})
}

func reservedField(k string) bool {
	return k == docstore.FieldID || k == docstore.FieldCreatedAt || k == docstore.FieldUpdatedAt || k == "_id"
}

func annotated(doc docstore.Document, id string) docstore.Document {
	out := cloneDoc(doc)
	out[docstore.FieldID] = id
	return out
}

func cloneDoc(doc docstore.Document) docstore.Document {
	out := make(docstore.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
