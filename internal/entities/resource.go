package entities

import (
	"encoding/json"
	"fmt"
)

// Resource is the canonical current/max pair. Every hp shape found in data
// files (flat int, {current,max}, {hp,max_hp}) is normalized into it at load.
type Resource struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// HasMax reports whether a maximum is known
func (r Resource) HasMax() bool {
	return r.Max > 0
}

// Sub removes n (floored at zero) and returns how much was actually removed
func (r *Resource) Sub(n int) int {
	if n <= 0 {
		return 0
	}
	if n > r.Current {
		n = r.Current
	}
	r.Current -= n
	return n
}

// Add restores n, clamped to Max when one is known, and returns the amount gained
func (r *Resource) Add(n int) int {
	if n <= 0 {
		return 0
	}
	before := r.Current
	r.Current += n
	if r.HasMax() && r.Current > r.Max {
		r.Current = r.Max
	}
	if r.Current < 0 {
		r.Current = 0
	}
	return r.Current - before
}

// BelowPercent reports whether current is strictly below pct percent of max.
// Without a known max it is never below.
func (r Resource) BelowPercent(pct int) bool {
	if !r.HasMax() {
		return false
	}
	return r.Current*100 < r.Max*pct
}

// UnmarshalJSON accepts 12, {"current":12,"max":20} or {"hp":12,"max_hp":20}
func (r *Resource) UnmarshalJSON(data []byte) error {
	var flat int
	if err := json.Unmarshal(data, &flat); err == nil {
		*r = Resource{Current: flat, Max: flat}
		return nil
	}

	var nested struct {
		Current *int `json:"current"`
		Max     *int `json:"max"`
		HP      *int `json:"hp"`
		MaxHP   *int `json:"max_hp"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("resource must be an int or {current,max}: %w", err)
	}

	out := Resource{}
	switch {
	case nested.Current != nil:
		out.Current = *nested.Current
	case nested.HP != nil:
		out.Current = *nested.HP
	}
	switch {
	case nested.Max != nil:
		out.Max = *nested.Max
	case nested.MaxHP != nil:
		out.Max = *nested.MaxHP
	}
	*r = out
	return nil
}
