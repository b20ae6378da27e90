package options

import "fmt"

// CloneFunc copies a value as it enters the set. A nil CloneFunc stores
// the value as given.
type CloneFunc func(value any) (any, error)

// DestroyFunc releases a cloned value when the set is destroyed.
type DestroyFunc func(value any)

// ApplyFunc delivers one named value into a target during Feed.
type ApplyFunc func(target any, name string, value any) error

type entry struct {
	name  string
	value any
}

// Set holds named values in insertion order.
type Set struct {
	clone   CloneFunc
	destroy DestroyFunc
	apply   ApplyFunc
	entries []entry
}

// New creates an empty Set. The apply callback is required; clone and
// destroy may be nil for values without ownership semantics.
func New(clone CloneFunc, destroy DestroyFunc, apply ApplyFunc) (*Set, error) {
	if apply == nil {
		return nil, fmt.Errorf("apply function required")
	}
	return &Set{clone: clone, destroy: destroy, apply: apply}, nil
}

// Add clones value and appends it under name. Entries are not
// deduplicated; on Feed, a later entry with the same name wins by
// arriving last.
func (s *Set) Add(name string, value any) error {
	if name == "" {
		return fmt.Errorf("option name required")
	}
	v := value
	if s.clone != nil {
		cloned, err := s.clone(value)
		if err != nil {
			return fmt.Errorf("clone option %q: %w", name, err)
		}
		v = cloned
	}
	s.entries = append(s.entries, entry{name: name, value: v})
	return nil
}

// Get returns the most recently added value under name.
func (s *Set) Get(name string) (any, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].name == name {
			return s.entries[i].value, true
		}
	}
	return nil, false
}

// Names returns the entry names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.name)
	}
	return out
}

// Len returns the number of entries.
func (s *Set) Len() int { return len(s.entries) }

// Feed applies every entry to target in insertion order. The first apply
// failure stops the feed and is returned.
func (s *Set) Feed(target any) error {
	for _, e := range s.entries {
		if err := s.apply(target, e.name, e.value); err != nil {
			return fmt.Errorf("apply option %q: %w", e.name, err)
		}
	}
	return nil
}

// Destroy releases every cloned value and empties the set.
func (s *Set) Destroy() {
	if s.destroy != nil {
		for _, e := range s.entries {
			s.destroy(e.value)
		}
	}
	s.entries = nil
}
