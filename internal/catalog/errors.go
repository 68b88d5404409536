package catalog

import (
	"errors"
	"fmt"

	"github.com/everstacklabs/kai/internal/task"
)

var (
	// ErrModelNotFound is returned when no catalog entry has the requested ID.
	ErrModelNotFound = errors.New("catalog: model not found")
	// ErrWrongCategory is returned when a model exists but serves another task type.
	ErrWrongCategory = errors.New("catalog: model is wrong category")
)

// ResolutionError reports why a model could not be used for a request.
type ResolutionError struct {
	ModelID string
	Want    task.Type
	Got     task.Type
	Err     error
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.Err, ErrWrongCategory) {
		return fmt.Sprintf("model %q is a %s model, not %s", e.ModelID, e.Got, e.Want)
	}
	return fmt.Sprintf("model %q not found", e.ModelID)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
