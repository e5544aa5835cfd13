package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the canonical, language-neutral petition category slug.
// Display labels live in the locale package.
type Category string

const (
	CategoryEnvironment      Category = "environment"
	CategoryUrbanDevelopment Category = "urban-development"
	CategoryEducation        Category = "education"
	CategoryHealth           Category = "health"
	CategoryAnimalRights     Category = "animal-rights"
	CategoryHumanRights      Category = "human-rights"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryEnvironment,
	CategoryUrbanDevelopment,
	CategoryEducation,
	CategoryHealth,
	CategoryAnimalRights,
	CategoryHumanRights,
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Visibility controls whether a petition appears in public listings
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is public or private.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Petition represents a petition entity
type Petition struct {
	ID          uuid.UUID  `json:"id" firestore:"-"`
	CreatorID   string     `json:"creator_id" firestore:"creatorId"`
	Title       string     `json:"title" firestore:"title"`
	Description string     `json:"description" firestore:"description"`
	Category    Category   `json:"category" firestore:"category"`
	Target      int64      `json:"target" firestore:"target"`
	Signatures  int64      `json:"signatures" firestore:"signatures"`
	Deadline    time.Time  `json:"deadline" firestore:"expiryDate"`
	Visibility  Visibility `json:"visibility" firestore:"visibility"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// IsEnded reports whether the deadline has passed at now. Ended is never
// stored; it is always derived from the deadline.
func (p *Petition) IsEnded(now time.Time) bool {
	return !p.Deadline.After(now)
}

// IsActive is the complement of IsEnded.
func (p *Petition) IsActive(now time.Time) bool {
	return p.Deadline.After(now)
}

// VisibleTo reports whether the given user may read the petition.
// Private petitions are only visible to their creator.
func (p *Petition) VisibleTo(userID string) bool {
	if p.Visibility != VisibilityPrivate {
		return true
	}
	return userID != "" && userID == p.CreatorID
}

// PetitionFilter narrows the public petition listing
type PetitionFilter struct {
	Search   string
	Category Category
	Limit    int
	Offset   int
}
