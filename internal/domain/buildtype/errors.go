package buildtype

import "fmt"

// ErrMalformedType indicates a catalog entry that cannot be used for planning
type ErrMalformedType struct {
	Type   string
	Reason string
}

func (e *ErrMalformedType) Error() string {
	return fmt.Sprintf("malformed build type %q: %s", e.Type, e.Reason)
}

// ErrUnknownType indicates a lookup for a name the catalog does not contain
type ErrUnknownType struct {
	Name string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown build type: %s", e.Name)
}
