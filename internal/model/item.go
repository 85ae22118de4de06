package model

import "time"

// Item is a broken object listed for repair.
type Item struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Category    string    `json:"category" bson:"category"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Location    string    `json:"location" bson:"location"`
	Fee         string    `json:"fee" bson:"fee"`
	Status      Status    `json:"status" bson:"status"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// ItemDraft is the user-supplied part of a new listing.
type ItemDraft struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Fee         string `json:"fee"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Status is the repair lifecycle state of an item.
type Status string

// Item statuses.
const (
	StatusAvailable  Status = "Available"
	StatusInProgress Status = "In Progress"
	StatusFixed      Status = "Fixed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInProgress, StatusFixed:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Available -> In Progress -> Fixed; nothing leaves Fixed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusAvailable:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusFixed
	}
	return false
}

// Item categories.
const (
	CategoryFurniture   = "Furniture"
	CategoryElectronics = "Electronics"
	CategoryAppliances  = "Appliances"
	CategoryClothing    = "Clothing"
	CategoryAutomotive  = "Automotive"
	CategoryOther       = "Other"
)

// Categories lists the closed set of categories in display order.
var Categories = []string{
	CategoryFurniture,
	CategoryElectronics,
	CategoryAppliances,
	CategoryClothing,
	CategoryAutomotive,
	CategoryOther,
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultLocation is used when a draft leaves the pick-up location empty.
const DefaultLocation = "Unknown Location"
