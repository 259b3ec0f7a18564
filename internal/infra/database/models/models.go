package models

import (
	"time"

	"gorm.io/gorm"
)

type Person struct {
	ID        string  `json:"id" gorm:"primaryKey;type:text"`
	Name      string  `json:"name" gorm:"type:text;not null"`
	BirthDate *string `json:"birthDate" gorm:"type:text"`
	DeathDate *string `json:"deathDate" gorm:"type:text"`
	Gender    *string `json:"gender" gorm:"type:text"`
	PhotoURL  *string `json:"photoUrl" gorm:"type:text"`
	Biography *string `json:"biography" gorm:"type:text"`
	Phone     *string `json:"phone" gorm:"type:text"`
	AccountID *string `json:"accountId" gorm:"type:text;index"`
	Hidden    bool    `json:"hidden" gorm:"type:boolean;not null;default:false;index"`
	Version   int64   `json:"version" gorm:"type:bigint;not null;default:1"`

	CDate time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

// Relationship rows are canonical: type is never "child" (person one is
// always the parent), and symmetric types keep their endpoints in
// lexicographic order so the unique index catches duplicates both ways.
type Relationship struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Type        string    `json:"type" gorm:"type:text;not null;uniqueIndex:relationship_identity"`
	PersonOneID string    `json:"personOneId" gorm:"type:text;not null;uniqueIndex:relationship_identity;index"`
	PersonTwoID string    `json:"personTwoId" gorm:"type:text;not null;uniqueIndex:relationship_identity;index"`
	PersonOne   Person    `json:"-" gorm:"foreignKey:PersonOneID;constraint:OnDelete:CASCADE;"`
	PersonTwo   Person    `json:"-" gorm:"foreignKey:PersonTwoID;constraint:OnDelete:CASCADE;"`
	CreatedBy   string    `json:"createdBy" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Update struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	AuthorID  string    `json:"authorId" gorm:"type:text;not null;index"`
	WallID    string    `json:"wallId" gorm:"type:text;not null;index"`
	PhotoURL  string    `json:"photoUrl" gorm:"type:text;not null"`
	Caption   string    `json:"caption" gorm:"type:text"`
	TaggedIDs string    `json:"taggedIds" gorm:"type:text"` // comma-joined person ids
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Block struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	BlockerID string    `json:"blockerId" gorm:"type:text;not null;uniqueIndex:block_identity;index"`
	BlockedID string    `json:"blockedId" gorm:"type:text;not null;uniqueIndex:block_identity"`
	Reason    string    `json:"reason" gorm:"type:text"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Invitation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	PersonID  string    `json:"personId" gorm:"type:text;not null;index"`
	Token     string    `json:"token" gorm:"type:text;not null;uniqueIndex"`
	CreatedBy string    `json:"createdBy" gorm:"type:text;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"type:timestamp with time zone;not null"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Person{},
		&Relationship{},
		&Update{},
		&Block{},
		&Invitation{},
	)
}
