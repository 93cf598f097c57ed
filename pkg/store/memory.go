package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

type memoryDoc struct {
	seq  uint64
	raw  json.RawMessage
	flat map[string]any
}

// Memory is an in-process Store. Records are kept as JSON so reads never
// alias the caller's values.
type Memory struct {
	mu   sync.RWMutex
	seq  uint64
	data map[string]map[string]memoryDoc
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]memoryDoc)}
}

func (m *Memory) Put(_ context.Context, collection, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return fmt.Errorf("%s/%s is not a document: %w", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.data[collection]
	if !ok {
		docs = make(map[string]memoryDoc)
		m.data[collection] = docs
	}
	m.seq++
	docs[id] = memoryDoc{seq: m.seq, raw: raw, flat: flat}
	return nil
}

func (m *Memory) Get(_ context.Context, collection, id string, out any) error {
	m.mu.RLock()
	doc, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(doc.raw, out)
}

func (m *Memory) Query(_ context.Context, collection string, filter Filter, out any) error {
	m.mu.RLock()
	var hits []memoryDoc
	for _, doc := range m.data[collection] {
		if matches(doc.flat, filter) {
			hits = append(hits, doc)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(hits, func(a, b memoryDoc) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	raws := make([]json.RawMessage, len(hits))
	for i, h := range hits {
		raws[i] = h.raw
	}
	arr, err := json.Marshal(raws)
	if err != nil {
		return err
	}
	return json.Unmarshal(arr, out)
}

func matches(doc map[string]any, filter Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			return false
		}
		// Round-trip the wanted value so numbers and strings compare in JSON form.
		raw, err := json.Marshal(want)
		if err != nil {
			return false
		}
		var norm any
		if err := json.Unmarshal(raw, &norm); err != nil || !reflect.DeepEqual(got, norm) {
			return false
		}
	}
	return true
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }
