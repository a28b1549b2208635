package trip

import (
	"strings"

	"family_trip/internal/domain"
)

// CompanionSelector tracks which family members join the trip, capped by policy.
type CompanionSelector struct {
	max       int
	available []domain.Companion
	selected  map[string]bool
}

func NewCompanionSelector(available []domain.Companion, limit int) *CompanionSelector {
	if limit < 0 {
		limit = 0
	}
	return &CompanionSelector{
		max:       limit,
		available: append([]domain.Companion(nil), available...),
		selected:  map[string]bool{},
	}
}

func (c *CompanionSelector) Max() int { return c.max }

func (c *CompanionSelector) Available() []domain.Companion {
	return append([]domain.Companion(nil), c.available...)
}

func (c *CompanionSelector) known(id string) bool {
	for _, a := range c.available {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Select adds id; it reports whether the selection changed.
func (c *CompanionSelector) Select(id string) (bool, error) {
	if !c.known(id) {
		return false, domain.ErrUnknownCompanion
	}
	if c.selected[id] {
		return false, nil
	}
	if len(c.selected) >= c.max {
		return false, domain.ErrCompanionLimit
	}
	c.selected[id] = true
	return true, nil
}

func (c *CompanionSelector) Deselect(id string) bool {
	if !c.selected[id] {
		return false
	}
	delete(c.selected, id)
	return true
}

// Replace swaps the whole selection, or leaves it untouched on error.
func (c *CompanionSelector) Replace(ids []string) (bool, error) {
	next := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !c.known(id) {
			return false, domain.ErrUnknownCompanion
		}
		next[id] = true
	}
	if len(next) > c.max {
		return false, domain.ErrCompanionLimit
	}
	changed := len(next) != len(c.selected)
	for id := range next {
		if !c.selected[id] {
			changed = true
		}
	}
	c.selected = next
	return changed, nil
}

func (c *CompanionSelector) Clear() { c.selected = map[string]bool{} }

// IDs returns selected ids in catalog order.
func (c *CompanionSelector) IDs() []string {
	var out []string
	for _, a := range c.available {
		if c.selected[a.ID] {
			out = append(out, a.ID)
		}
	}
	return out
}

func (c *CompanionSelector) Selected() []domain.Companion {
	var out []domain.Companion
	for _, a := range c.available {
		if c.selected[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// Encode joins selected ids with "|" for the review and submission authorities.
func (c *CompanionSelector) Encode() string {
	return strings.Join(c.IDs(), segmentSep)
}
