package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Lazy is a deferred loader cell. The load function runs at most once;
// its value and error are kept for every later Get.
type Lazy struct {
	once sync.Once
	load func() (any, error)
	val  any
	err  error
}

func NewLazy(load func() (any, error)) *Lazy {
	return &Lazy{load: load}
}

// Get runs the loader on first call and returns the cached result afterwards.
func (l *Lazy) Get() (any, error) {
	l.once.Do(func() {
		l.val, l.err = l.load()
		l.load = nil
	})
	return l.val, l.err
}

// DataContext is the mapping every stage reads from and publishes into.
// One instance lives for the whole orchestrator; it is never replaced.
// Access is unsynchronized: stages run one at a time.
type DataContext struct {
	values map[string]any
}

func NewDataContext() *DataContext {
	return &DataContext{values: make(map[string]any)}
}

// Set stores v under key, overwriting any earlier value.
func (dc *DataContext) Set(key string, v any) {
	dc.values[key] = v
}

// Get returns the raw stored value, which may be a *Lazy.
func (dc *DataContext) Get(key string) (any, bool) {
	v, ok := dc.values[key]
	return v, ok
}

// Value resolves key, forcing a deferred loader if one is bound.
func (dc *DataContext) Value(key string) (any, error) {
	v, ok := dc.values[key]
	if !ok {
		return nil, fmt.Errorf("no value for key %q", key)
	}
	if l, ok := v.(*Lazy); ok {
		return l.Get()
	}
	return v, nil
}

func (dc *DataContext) Keys() []string {
	keys := make([]string, 0, len(dc.values))
	for k := range dc.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (dc *DataContext) Len() int {
	return len(dc.values)
}

// Lookup resolves key and asserts it to T.
func Lookup[T any](dc *DataContext, key string) (T, error) {
	var zero T
	v, err := dc.Value(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("value for key %q has type %T, not %T", key, v, zero)
	}
	return t, nil
}
