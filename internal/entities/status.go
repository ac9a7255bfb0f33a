package entities

import "sort"

// Status is a timed effect on an entity. Duration is always > 0 while present.
type Status struct {
	Stacks   int `json:"stacks"`
	Duration int `json:"duration"`
}

// StatusMap holds statuses keyed by name. A name that is absent behaves as
// a zero status.
type StatusMap map[string]Status

// Get returns the named status, zero when absent
func (m StatusMap) Get(name string) Status {
	if m == nil {
		return Status{}
	}
	return m[name]
}

// Stacks returns the stack count of the named status
func (m StatusMap) Stacks(name string) int {
	return m.Get(name).Stacks
}

// Has reports whether the named status is present
func (m StatusMap) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Names returns the present status names in sorted order
func (m StatusMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StackCounts returns name -> stacks, used by predicate contexts
func (m StatusMap) StackCounts() map[string]int {
	out := make(map[string]int, len(m))
	for name, s := range m {
		out[name] = s.Stacks
	}
	return out
}
