package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store for local development and tests.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string]Doc

	// FailWrites, when set, makes Add and Set fail without mutating
	// anything. Tests use it to exercise batch atomicity.
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{colls: make(map[string]map[string]Doc)}
}

func (m *Memory) coll(name string) map[string]Doc {
	c, ok := m.colls[name]
	if !ok {
		c = make(map[string]Doc)
		m.colls[name] = c
	}
	return c
}

func (m *Memory) Add(ctx context.Context, collection string, docs []Doc) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return nil, m.FailWrites
	}
	c := m.coll(collection)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id := uuid.NewString()
		c[id] = cloneDoc(d)
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.coll(collection)[id] = cloneDoc(doc)
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Doc, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.colls[collection][id]
	if !ok {
		return nil, false, nil
	}
	return cloneDoc(d), true, nil
}

func (m *Memory) Query(ctx context.Context, collection, field, op string, value any) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if op != "==" {
		return nil, fmt.Errorf("memory store: unsupported operator %q", op)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Snapshot
	for id, d := range m.colls[collection] {
		if d[field] == value {
			out = append(out, Snapshot{ID: id, Data: cloneDoc(d)})
		}
	}
	// map order is random; keep results stable for callers and tests
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len reports the number of docs in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.colls[collection])
}

func cloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
