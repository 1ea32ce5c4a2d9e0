package state

// Table is a journaled keyed store. Values are stored by value: callers that
// keep pointers inside V (for example *big.Int) must put fresh copies and never
// mutate a value that was returned by Get.
type Table[K comparable, V any] struct {
	j *Journal
	m map[K]V
}

func NewTable[K comparable, V any](j *Journal) *Table[K, V] {
	return &Table[K, V]{
		j: j,
		m: make(map[K]V),
	}
}

func (t *Table[K, V]) Get(k K) (V, bool) {
	v, ok := t.m[k]
	return v, ok
}

// Value returns the stored value or the zero value of V.
func (t *Table[K, V]) Value(k K) V {
	return t.m[k]
}

func (t *Table[K, V]) Has(k K) bool {
	_, ok := t.m[k]
	return ok
}

func (t *Table[K, V]) Put(k K, v V) {
	prev, existed := t.m[k]
	t.j.record(func() {
		if existed {
			t.m[k] = prev
		} else {
			delete(t.m, k)
		}
	})
	t.m[k] = v
}

func (t *Table[K, V]) Delete(k K) {
	prev, existed := t.m[k]
	if !existed {
		return
	}
	t.j.record(func() {
		t.m[k] = prev
	})
	delete(t.m, k)
}

func (t *Table[K, V]) Len() int {
	return len(t.m)
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified and fn must not write to the table.
func (t *Table[K, V]) Range(fn func(k K, v V) bool) {
	for k, v := range t.m {
		if !fn(k, v) {
			return
		}
	}
}
