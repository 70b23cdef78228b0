package objectkey

import "sort"

// Set is a hash set of keys.
//
// Sets are the unit of exchange between the ledger reader, the bucket
// lister, and the diff engine. All operations are O(1) per element.
type Set map[Key]struct{}

// NewSet returns a set containing the given keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key into the set.
func (s Set) Add(k Key) {
	s[k] = struct{}{}
}

// Contains reports whether the key is in the set.
func (s Set) Contains(k Key) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keys in the set.
func (s Set) Len() int {
	return len(s)
}

// Difference returns the keys in s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for k := range s {
		if !other.Contains(k) {
			out.Add(k)
		}
	}
	return out
}

// Intersection returns the keys present in both s and other.
func (s Set) Intersection(other Set) Set {
	small, large := s, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	out := make(Set)
	for k := range small {
		if large.Contains(k) {
			out.Add(k)
		}
	}
	return out
}

// Union returns the keys present in either s or other.
func (s Set) Union(other Set) Set {
	out := make(Set, s.Len()+other.Len())
	for k := range s {
		out.Add(k)
	}
	for k := range other {
		out.Add(k)
	}
	return out
}

// Equal reports whether s and other contain exactly the same keys.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s {
		if !other.Contains(k) {
			return false
		}
	}
	return true
}

// Keys returns the members of the set.
// Ordering is unspecified; use Strings for deterministic output.
func (s Set) Keys() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// Strings returns the canonical string forms of the members, sorted.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}
