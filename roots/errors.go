package roots

import "errors"

var (
	// ErrAlreadyDefined is returned by Stack.Init when the variable name
	// is already present in that stack.
	ErrAlreadyDefined = errors.New("roots: variable already defined")

	// ErrNotFound is returned by Stack.ReassignRef and Stack.RemoveRef
	// when the variable name has not been Init'd.
	ErrNotFound = errors.New("roots: variable not found")
)
