package graph

import (
	"fmt"

	kindred "github.com/kindredapp/kindred-go"
)

// InvalidEdgeError reports an edge that can never be applied, such as a
// self-relationship.
type InvalidEdgeError struct {
	Edge   kindred.Edge
	Reason string
}

func (e InvalidEdgeError) Error() string {
	if e.Reason == "" {
		return "invalid edge"
	}
	return fmt.Sprintf("invalid edge: %s", e.Reason)
}

// Is enables errors.Is matching on InvalidEdgeError.
func (e InvalidEdgeError) Is(target error) bool {
	_, ok := target.(InvalidEdgeError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidEdgeError)
	return ok
}

// ErrInvalidEdge is the sentinel error for rejected edges.
var ErrInvalidEdge = InvalidEdgeError{}
