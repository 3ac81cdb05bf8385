// Package guard marks values that were built through their constructor, so that
// zero values smuggled past validation can be detected.
package guard

import "errors"

var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in commands and aggregates; its zero value is "not constructed".
type ConstructorGuard struct {
	constructed bool
}

func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{constructed: true}
}

// Validate returns notConstructed (or ErrDefaultConstructorGuard when nil) for a zero guard.
func (g ConstructorGuard) Validate(notConstructed error) error {
	if g.constructed {
		return nil
	}
	if notConstructed == nil {
		return ErrDefaultConstructorGuard
	}
	return notConstructed
}
