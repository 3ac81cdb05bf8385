// Package enum holds the shared plumbing behind the integer enumerations of the domain model:
// string conversion, parsing and validation driven by a single name table.
package enum

import (
	"fmt"

	"slaughterhouse/internal/pkg/errs"
)

// Names maps every valid value of an enumeration to its canonical name.
// The zero value of T is reserved for Unknown and must not be listed.
type Names[T ~int] map[T]string

func (n Names[T]) String(v T) string {
	if s, ok := n[v]; ok {
		return s
	}
	return "Unknown"
}

func (n Names[T]) Validate(param string, v T) error {
	if _, ok := n[v]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(param, fmt.Errorf("%d is not a valid %s", int(v), param))
	}
	return nil
}

// Parse is case-sensitive; it accepts only names listed in the table.
func (n Names[T]) Parse(param, s string) (T, error) {
	for v, name := range n {
		if name == s {
			return v, nil
		}
	}
	var zero T
	return zero, errs.NewValueIsInvalidErrorWithCause(param, fmt.Errorf("%q is not a valid %s", s, param))
}

func (n Names[T]) Marshal(param string, v T) ([]byte, error) {
	if err := n.Validate(param, v); err != nil {
		return nil, err
	}
	return []byte(n[v]), nil
}

func (n Names[T]) Unmarshal(param string, text []byte, dst *T) error {
	v, err := n.Parse(param, string(text))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
