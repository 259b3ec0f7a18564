package kindred

import (
	"github.com/google/uuid"
)

const tempIDPrefix = "tmp-"

// NewTemporaryID fabricates a client-local identifier for an optimistic
// create. The store swaps it for the server-assigned one on reconciliation.
func NewTemporaryID() PersonID {
	return PersonID{Value: tempIDPrefix + uuid.NewString(), Temporary: true}
}

// ContainsID reports whether ids holds id.
func ContainsID(ids []PersonID, id PersonID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// AppendID appends id to ids unless already present.
func AppendID(ids []PersonID, id PersonID) []PersonID {
	if ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// CloneIDs returns a copy of ids. Adjacency slices must never be shared
// between two Person values once one of them is about to change.
func CloneIDs(ids []PersonID) []PersonID {
	if ids == nil {
		return nil
	}
	out := make([]PersonID, len(ids))
	copy(out, ids)
	return out
}
