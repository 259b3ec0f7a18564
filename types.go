package kindred

import (
	"encoding/json"
	"time"
)

// EdgeType is the kind of relationship link between two people.
type EdgeType string

const (
	EdgeParent  EdgeType = "parent"
	EdgeChild   EdgeType = "child"
	EdgeSpouse  EdgeType = "spouse"
	EdgeSibling EdgeType = "sibling"
)

// Directional reports whether person one / person two carry distinct roles.
// For parent and child edges person one is always the parent; spouse and
// sibling edges are symmetric.
func (t EdgeType) Directional() bool {
	return t == EdgeParent || t == EdgeChild
}

func (t EdgeType) Valid() bool {
	switch t {
	case EdgeParent, EdgeChild, EdgeSpouse, EdgeSibling:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// PersonID identifies a Person. IDs are server-assigned; a temporary ID
// exists only inside a client session between an optimistic create and its
// reconciliation, and never crosses the wire, so the JSON form is the plain
// string value.
type PersonID struct {
	Value     string
	Temporary bool
}

// ConfirmedID wraps a server-assigned identifier.
func ConfirmedID(v string) PersonID {
	return PersonID{Value: v}
}

func (id PersonID) IsZero() bool {
	return id.Value == ""
}

func (id PersonID) String() string {
	return id.Value
}

func (id PersonID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value)
}

func (id *PersonID) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	id.Value = value
	id.Temporary = false
	return nil
}

// Person is one family-tree member. Adjacency arrays are maintained solely
// by graph.ApplyEdge; nothing else may write them.
type Person struct {
	ID PersonID `json:"id"`

	Name      string  `json:"name"`
	BirthDate *string `json:"birthDate,omitempty"`
	DeathDate *string `json:"deathDate,omitempty"`
	Gender    *Gender `json:"gender,omitempty"`
	PhotoURL  *string `json:"photoUrl,omitempty"`
	Biography *string `json:"biography,omitempty"`
	Phone     *string `json:"phone,omitempty"`

	ParentIDs  []PersonID `json:"parentIds"`
	SpouseIDs  []PersonID `json:"spouseIds"`
	ChildIDs   []PersonID `json:"childIds"`
	SiblingIDs []PersonID `json:"siblingIds"`

	// AccountID links a real authenticated profile. A person without one is
	// an ancestor placeholder added by a curator.
	AccountID *string `json:"accountId,omitempty"`
	Hidden    bool    `json:"hidden,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// People is an immutable-by-convention snapshot of the person collection.
type People map[PersonID]Person

// Edge is a proposed or stored relationship link.
type Edge struct {
	ID          string   `json:"id,omitempty"`
	Type        EdgeType `json:"type"`
	PersonOneID PersonID `json:"personOneId"`
	PersonTwoID PersonID `json:"personTwoId"`
	CreatedBy   string   `json:"createdBy,omitempty"`
}

// Update is a photo post on a profile wall. The graph core treats it as an
// opaque record passed through to the backend.
type Update struct {
	ID        string     `json:"id"`
	AuthorID  PersonID   `json:"authorId"`
	WallID    PersonID   `json:"wallId"`
	PhotoURL  string     `json:"photoUrl"`
	Caption   string     `json:"caption,omitempty"`
	TaggedIDs []PersonID `json:"taggedIds,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// BlockRecord marks a person as hidden for the blocking account.
type BlockRecord struct {
	ID        string    `json:"id"`
	BlockerID PersonID  `json:"blockerId"`
	BlockedID PersonID  `json:"blockedId"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvitationLink lets a placeholder profile be claimed by a real account.
type InvitationLink struct {
	ID        string    `json:"id"`
	PersonID  PersonID  `json:"personId"`
	Token     string    `json:"token"`
	CreatedBy string    `json:"createdBy"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is a graph-change notification delivered over the realtime feed.
type Event struct {
	Kind      string    `json:"kind"` // person.created, person.updated, edge.created, edge.deleted
	PersonID  string    `json:"personId,omitempty"`
	EdgeID    string    `json:"edgeId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
