package diff

import "github.com/everstacklabs/kai/internal/catalog"

// ChangeSet is the difference between a base catalog and a candidate one.
type ChangeSet struct {
	New             []ModelChange
	Updated         []ModelUpdate
	Removed         []ModelChange
	PossibleRenames []RenamePair
	Unchanged       int
}

// ModelChange is a model present on only one side.
type ModelChange struct {
	ID    string
	Model *catalog.Model
}

// ModelUpdate is a model present on both sides with differing fields.
type ModelUpdate struct {
	ID      string
	Model   *catalog.Model
	Changes []FieldChange
}

// FieldChange is one differing field. Param fields are addressed as
// "params.<name>.<field>".
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// RenamePair is a removed model that looks like it reappeared under a new ID.
type RenamePair struct {
	OldID  string
	NewID  string
	Reason string
}

// HasChanges reports whether any model was added, updated or removed.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.New) > 0 || len(cs.Updated) > 0 || len(cs.Removed) > 0
}

// TotalChanged counts new and updated models.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.New) + len(cs.Updated)
}
