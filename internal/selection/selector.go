package selection

import (
	"fmt"
	"slices"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// Selection is an immutable view of the chosen variables.
type Selection struct {
	Dependent    string   `json:"dependent"`
	Independents []string `json:"independents"`
}

// HasDependent reports whether a dependent variable has been chosen.
func (s Selection) HasDependent() bool {
	return s.Dependent != ""
}

// IsValid is true iff a dependent is set and at least one independent is chosen.
func (s Selection) IsValid() bool {
	return s.HasDependent() && len(s.Independents) > 0
}

// Selector tracks the user's choice of one dependent and an ordered set of
// independent variables over a fixed column list. The dependent is never
// also an independent.
//
// A Selector is not safe for concurrent use; the lifecycle controller
// serialises access to it.
type Selector struct {
	columns      []string
	dependent    string
	independents []string
}

// NewSelector creates an empty selection over columns.
func NewSelector(columns []string) *Selector {
	return &Selector{columns: slices.Clone(columns)}
}

// Columns returns the columns the selector chooses from.
func (s *Selector) Columns() []string {
	return slices.Clone(s.columns)
}

// SetDependent makes name the dependent variable. If name was selected as
// an independent it is dropped from that set.
func (s *Selector) SetDependent(name string) error {
	if !slices.Contains(s.columns, name) {
		return fmt.Errorf("%w: %q is not a column", models.ErrInvalidVariable, name)
	}
	s.dependent = name
	s.independents = slices.DeleteFunc(s.independents, func(v string) bool { return v == name })
	return nil
}

// ToggleIndependent adds name to the independents if absent and removes it
// if present. The order of the remaining entries is kept.
func (s *Selector) ToggleIndependent(name string) error {
	if !slices.Contains(s.columns, name) {
		return fmt.Errorf("%w: %q is not a column", models.ErrInvalidVariable, name)
	}
	if name == s.dependent {
		return fmt.Errorf("%w: %q is the dependent variable", models.ErrInvalidVariable, name)
	}
	if i := slices.Index(s.independents, name); i >= 0 {
		s.independents = slices.Delete(s.independents, i, i+1)
		return nil
	}
	s.independents = append(s.independents, name)
	return nil
}

// Candidates returns the columns that may be chosen as independents, in
// column order.
func (s *Selector) Candidates() []string {
	out := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if c != s.dependent {
			out = append(out, c)
		}
	}
	return out
}

// IsSelected reports whether name is currently an independent.
func (s *Selector) IsSelected(name string) bool {
	return slices.Contains(s.independents, name)
}

// IsValid is true iff a dependent is set and independents is non-empty.
func (s *Selector) IsValid() bool {
	return s.Selection().IsValid()
}

// Selection returns a copy of the current choice.
func (s *Selector) Selection() Selection {
	return Selection{
		Dependent:    s.dependent,
		Independents: slices.Clone(s.independents),
	}
}
