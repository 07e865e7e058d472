package pipeline

// orderedMap is a map that iterates in first-insertion order.
type orderedMap[K comparable, V any] struct {
	keys []K
	vals map[K]*V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{vals: make(map[K]*V)}
}

// getOrInit returns the value for k, inserting init() first if k is new.
func (m *orderedMap[K, V]) getOrInit(k K, init func() V) *V {
	if v, ok := m.vals[k]; ok {
		return v
	}
	v := init()
	m.vals[k] = &v
	m.keys = append(m.keys, k)
	return &v
}

// set overwrites the value for k; the original insertion position is kept.
func (m *orderedMap[K, V]) set(k K, v V) {
	if p, ok := m.vals[k]; ok {
		*p = v
		return
	}
	m.vals[k] = &v
	m.keys = append(m.keys, k)
}

func (m *orderedMap[K, V]) get(k K) (V, bool) {
	if p, ok := m.vals[k]; ok {
		return *p, true
	}
	var zero V
	return zero, false
}

func (m *orderedMap[K, V]) len() int { return len(m.keys) }

func (m *orderedMap[K, V]) each(fn func(K, *V)) {
	for _, k := range m.keys {
		fn(k, m.vals[k])
	}
}
