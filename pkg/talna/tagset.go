package talna

import "sort"

// Tag represents a key-value label attached to a series.
type Tag struct {
	Key   string
	Value string
}

// Tagset is an unordered set of tags with unique keys. Its canonical
// form sorts pairs ascending by key; that canonicalization is what
// defines series identity, not any particular construction order.
type Tagset []Tag

// Sort sorts the tagset in place by key, then value.
func (t Tagset) Sort() {
	sort.Slice(t, func(i, j int) bool {
		if t[i].Key != t[j].Key {
			return t[i].Key < t[j].Key
		}
		return t[i].Value < t[j].Value
	})
}

// FromMap builds a Tagset from a map. Construction sugar only; identity
// is determined by canonicalSeriesKey, not by map iteration order.
func FromMap(m map[string]string) Tagset {
	if len(m) == 0 {
		return nil
	}
	t := make(Tagset, 0, len(m))
	for k, v := range m {
		t = append(t, Tag{Key: k, Value: v})
	}
	t.Sort()
	return t
}

// Get returns the value for a key and whether the key is present; the
// value is "" when it is not.
func (t Tagset) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Equal returns true if two tagsets have the same tags, independent of
// order.
func (t Tagset) Equal(other Tagset) bool {
	if len(t) != len(other) {
		return false
	}
	a, b := append(Tagset(nil), t...), append(Tagset(nil), other...)
	a.Sort()
	b.Sort()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the tagset, safe to sort independently.
func (t Tagset) Clone() Tagset {
	return append(Tagset(nil), t...)
}
