package domain

import "time"

// Person is one stored family-tree member. Adjacency is not stored here; it
// is derived from the relationship table when a collection is read.
type Person struct {
	ID        string
	Name      string
	BirthDate *string
	DeathDate *string
	Gender    *string
	PhotoURL  *string
	Biography *string
	Phone     *string

	// AccountID links an authenticated account; nil marks an ancestor
	// placeholder created by a curator.
	AccountID *string
	Hidden    bool

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Edge is a stored relationship link. Type is canonical: "parent" rows
// always mean person one is the parent.
type Edge struct {
	ID          string
	Type        string
	PersonOneID string
	PersonTwoID string
	CreatedBy   string
	CreatedAt   time.Time
}

// Update is a wall post. The server stores it opaquely.
type Update struct {
	ID        string
	AuthorID  string
	WallID    string
	PhotoURL  string
	Caption   string
	TaggedIDs []string
	CreatedAt time.Time
}

// Block hides a person from the blocking account's views.
type Block struct {
	ID        string
	BlockerID string
	BlockedID string
	Reason    string
	CreatedAt time.Time
}

// Invitation lets a placeholder profile be claimed.
type Invitation struct {
	ID        string
	PersonID  string
	Token     string
	CreatedBy string
	ExpiresAt time.Time
	CreatedAt time.Time
}
