package lernjob

import (
	"fmt"

	"github.com/Schlaumeier5/student-database/internal/model"
)

// RequestSet is the set of active request kinds for one subject.
type RequestSet map[model.RequestKind]struct{}

// Set adds or removes kind. Adding an active kind again changes nothing.
func (s RequestSet) Set(kind model.RequestKind, active bool) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown request kind %q", model.ErrValidation, kind)
	}
	if active {
		s[kind] = struct{}{}
	} else {
		delete(s, kind)
	}
	return nil
}

// Has reports whether kind is active.
func (s RequestSet) Has(kind model.RequestKind) bool {
	_, ok := s[kind]
	return ok
}

// Len returns the number of active kinds.
func (s RequestSet) Len() int { return len(s) }

// Kinds returns the active kinds in display order.
func (s RequestSet) Kinds() []model.RequestKind {
	kinds := []model.RequestKind{}
	for _, k := range model.RequestKinds {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// SetRequest toggles a flag on the record, creating the subject's set on
// first use.
func (r *StudentRecord) SetRequest(subjectID int64, kind model.RequestKind, active bool) error {
	set, ok := r.Requests[subjectID]
	if !ok {
		set = RequestSet{}
	}
	if err := set.Set(kind, active); err != nil {
		return err
	}
	r.Requests[subjectID] = set
	return nil
}
