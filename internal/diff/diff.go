// Package diff compares two model catalogs, e.g. the embedded one and a
// directory of overrides or a fresh export.
package diff

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/everstacklabs/kai/internal/catalog"
)

// Compute compares candidate against base.
func Compute(base, candidate *catalog.Registry) *ChangeSet {
	cs := &ChangeSet{}

	for _, m := range candidate.All() {
		existing, ok := base.Get(m.ID)
		if !ok {
			cs.New = append(cs.New, ModelChange{ID: m.ID, Model: m})
			continue
		}
		if changes := computeFieldChanges(existing, m); len(changes) > 0 {
			cs.Updated = append(cs.Updated, ModelUpdate{ID: m.ID, Model: m, Changes: changes})
		} else {
			cs.Unchanged++
		}
	}

	var disappeared []ModelChange
	for _, m := range base.All() {
		if _, ok := candidate.Get(m.ID); !ok {
			disappeared = append(disappeared, ModelChange{ID: m.ID, Model: m})
		}
	}

	cs.PossibleRenames = detectRenames(cs.New, disappeared)
	renamed := make(map[string]bool, len(cs.PossibleRenames))
	for _, rp := range cs.PossibleRenames {
		renamed[rp.OldID] = true
	}
	for _, mc := range disappeared {
		if !renamed[mc.ID] {
			cs.Removed = append(cs.Removed, mc)
		}
	}
	return cs
}

func computeFieldChanges(existing, candidate *catalog.Model) []FieldChange {
	var changes []FieldChange
	add := func(field string, o, n any) {
		changes = append(changes, FieldChange{Field: field, OldValue: o, NewValue: n})
	}

	if existing.Name != candidate.Name {
		add("name", existing.Name, candidate.Name)
	}
	if existing.Category != candidate.Category {
		add("category", existing.Category, candidate.Category)
	}
	if existing.Provider != candidate.Provider {
		add("provider", existing.Provider, candidate.Provider)
	}
	if existing.DocURL != candidate.DocURL {
		add("doc_url", existing.DocURL, candidate.DocURL)
	}

	oldPrice, newPrice := pricing(existing), pricing(candidate)
	if oldPrice.Credits != newPrice.Credits {
		add("pricing.credits", oldPrice.Credits, newPrice.Credits)
	}
	if oldPrice.USD != newPrice.USD {
		add("pricing.usd", oldPrice.USD, newPrice.USD)
	}

	if !equalStringSets(existing.Capabilities, candidate.Capabilities) {
		add("capabilities", existing.Capabilities, candidate.Capabilities)
	}

	for _, p := range candidate.Params {
		old, ok := existing.Param(p.Name)
		if !ok {
			add("params."+p.Name, nil, p.Kind)
			continue
		}
		changes = append(changes, paramChanges(old, &p)...)
	}
	for _, p := range existing.Params {
		if _, ok := candidate.Param(p.Name); !ok {
			add("params."+p.Name, p.Kind, nil)
		}
	}
	return changes
}

func paramChanges(old, cur *catalog.Param) []FieldChange {
	var changes []FieldChange
	prefix := "params." + cur.Name + "."
	add := func(field string, o, n any) {
		changes = append(changes, FieldChange{Field: prefix + field, OldValue: o, NewValue: n})
	}

	if old.Kind != cur.Kind {
		add("kind", old.Kind, cur.Kind)
	}
	if old.Required != cur.Required {
		add("required", old.Required, cur.Required)
	}
	if fmt.Sprint(old.Default) != fmt.Sprint(cur.Default) {
		add("default", old.Default, cur.Default)
	}
	if !equalStringSets(old.Options, cur.Options) {
		add("options", old.Options, cur.Options)
	}
	if !reflect.DeepEqual(old.Min, cur.Min) {
		add("min", deref(old.Min), deref(cur.Min))
	}
	if !reflect.DeepEqual(old.Max, cur.Max) {
		add("max", deref(old.Max), deref(cur.Max))
	}
	if !reflect.DeepEqual(old.MaxLength, cur.MaxLength) {
		add("max_length", deref(old.MaxLength), deref(cur.MaxLength))
	}
	return changes
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func pricing(m *catalog.Model) catalog.Pricing {
	if m.Pricing == nil {
		return catalog.Pricing{}
	}
	return *m.Pricing
}

// equalStringSets compares two string slices for equality (order-independent).
func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// detectRenames pairs new and removed models of the same category and
// provider that accept exactly the same parameter names.
func detectRenames(newModels, disappeared []ModelChange) []RenamePair {
	var renames []RenamePair
	used := make(map[string]bool)

	for _, newM := range newModels {
		for _, oldM := range disappeared {
			if used[oldM.ID] {
				continue
			}
			if newM.Model.Category != oldM.Model.Category || newM.Model.Provider != oldM.Model.Provider {
				continue
			}
			if !equalStringSets(paramNames(newM.Model), paramNames(oldM.Model)) {
				continue
			}
			used[oldM.ID] = true
			renames = append(renames, RenamePair{
				OldID:  oldM.ID,
				NewID:  newM.ID,
				Reason: "same provider and category, identical parameters",
			})
			break
		}
	}
	return renames
}

func paramNames(m *catalog.Model) []string {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	return names
}

// RenderSummary formats a changeset for the terminal.
func RenderSummary(cs *ChangeSet) string {
	if !cs.HasChanges() && len(cs.PossibleRenames) == 0 {
		return fmt.Sprintf("No changes (%d models unchanged).", cs.Unchanged)
	}

	var b strings.Builder
	if len(cs.New) > 0 {
		fmt.Fprintf(&b, "New models (%d):\n", len(cs.New))
		for _, m := range cs.New {
			fmt.Fprintf(&b, "  + %s (%s)\n", m.ID, m.Model.Category)
		}
	}
	if len(cs.Updated) > 0 {
		fmt.Fprintf(&b, "Updated models (%d):\n", len(cs.Updated))
		for _, u := range cs.Updated {
			fmt.Fprintf(&b, "  ~ %s\n", u.ID)
			for _, c := range u.Changes {
				fmt.Fprintf(&b, "      %s: %v -> %v\n", c.Field, show(c.OldValue), show(c.NewValue))
			}
		}
	}
	if len(cs.PossibleRenames) > 0 {
		fmt.Fprintf(&b, "Possible renames (%d):\n", len(cs.PossibleRenames))
		for _, r := range cs.PossibleRenames {
			fmt.Fprintf(&b, "  %s -> %s (%s)\n", r.OldID, r.NewID, r.Reason)
		}
	}
	if len(cs.Removed) > 0 {
		fmt.Fprintf(&b, "Removed models (%d):\n", len(cs.Removed))
		for _, m := range cs.Removed {
			fmt.Fprintf(&b, "  - %s\n", m.ID)
		}
	}
	fmt.Fprintf(&b, "Unchanged: %d", cs.Unchanged)
	return b.String()
}

func show(v any) any {
	if v == nil {
		return "(none)"
	}
	return v
}
