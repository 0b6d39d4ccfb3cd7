package docstore

import (
	"context"
	"reflect"
	"sync"
)

// MemoryStore keeps the whole tree in process. Values are normalized through JSON on the way
// in and copied on the way out, so callers never share maps with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: map[string]any{}}
}

func (m *MemoryStore) Get(ctx context.Context, path string) (any, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := lookup(m.root, segs)
	if !ok {
		return nil, ErrNotFound
	}
	return Encode(node)
}

func (m *MemoryStore) Set(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := Encode(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(segs, v)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	if err := validateFields(fields); err != nil {
		return err
	}
	normalized := make(map[string]any, len(fields))
	for k, v := range fields {
		nv, err := Encode(v)
		if err != nil {
			return err
		}
		normalized[k] = nv
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range normalized {
		keySegs, _ := SplitPath(k)
		full := append(append([]string{}, segs...), keySegs...)
		m.setLocked(full, v)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(segs)
	return nil
}

func (m *MemoryStore) FindByField(ctx context.Context, collectionPath, fieldPath string, value any) (map[string]any, error) {
	segs, err := SplitPath(collectionPath)
	if err != nil {
		return nil, err
	}
	fieldSegs, err := SplitPath(fieldPath)
	if err != nil {
		return nil, err
	}
	want, err := Encode(value)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := lookup(m.root, segs)
	if !ok {
		return map[string]any{}, nil
	}
	return matchChildren(node, fieldSegs, want)
}

func (m *MemoryStore) setLocked(segs []string, v any) {
	if isEmptyValue(v) {
		m.deleteLocked(segs)
		return
	}
	node := m.root
	for _, s := range segs[:len(segs)-1] {
		next, ok := node[s].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[s] = next
		}
		node = next
	}
	node[segs[len(segs)-1]] = v
}

func (m *MemoryStore) deleteLocked(segs []string) {
	parents := make([]map[string]any, 0, len(segs))
	node := m.root
	for _, s := range segs[:len(segs)-1] {
		next, ok := node[s].(map[string]any)
		if !ok {
			return
		}
		parents = append(parents, node)
		node = next
	}
	delete(node, segs[len(segs)-1])

	// prune parents left empty
	for i := len(parents) - 1; i >= 0 && len(node) == 0; i-- {
		delete(parents[i], segs[i])
		node = parents[i]
	}
}

func lookup(root map[string]any, segs []string) (any, bool) {
	if root == nil {
		return nil, false
	}
	var node any = root
	for _, s := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// matchChildren returns copies of the children of node whose nested field equals want.
func matchChildren(node any, fieldSegs []string, want any) (map[string]any, error) {
	out := map[string]any{}
	for id, child := range Children(node) {
		got, ok := lookup(Children(child), fieldSegs)
		if !ok || !reflect.DeepEqual(got, want) {
			continue
		}
		c, err := Encode(child)
		if err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, nil
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return true
	}
	return false
}
