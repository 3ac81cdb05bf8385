// Package kernel holds identifier primitives shared by every aggregate.
//
// UUID wraps github.com/google/uuid so that the zero value is detectably invalid and
// cannot be mistaken for a real process id.
package kernel
