package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/oakwell/treeaid/internal/geo"
)

// GuestDisplayName is shown when a tree has no poster on record, either
// because it was reported anonymously or the account no longer exists.
const GuestDisplayName = "Guest User"

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"size:255;not null;unique" json:"email"`
	Location  string         `gorm:"size:255" json:"location,omitempty"`
	Website   string         `gorm:"size:255" json:"website,omitempty"`
	AvatarURL string         `gorm:"size:255" json:"avatarUrl,omitempty"`
	Latitude  float64        `json:"latitude,omitempty"`
	Longitude float64        `json:"longitude,omitempty"`
	// OAuth provider linkage, one column per provider as in the original
	// account schema.
	Google   string `gorm:"size:255" json:"-"`
	Facebook string `gorm:"size:255" json:"-"`
}

// Tree is a reported tree. PosterID and SaverID are nullable: a NULL
// poster means an anonymous report. A tree starts unhealthy with no saver
// and transitions at most once to healthy; nothing reverses it.
type Tree struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Location    geo.Point `gorm:"type:geometry(Point,4326)" json:"location"`
	PosterID    *uint     `gorm:"index" json:"posterId,omitempty"`
	SaverID     *uint     `gorm:"index" json:"saverId,omitempty"`
	IsHealthy   bool      `gorm:"not null;default:false" json:"isHealthy"`
	Description string    `gorm:"size:255" json:"description"`
	Pictures    []Picture `json:"pictures,omitempty"`
}

// Picture is an insert-only photo record. IsBefore marks photos attached
// at infection-report time; saved-report photos carry false.
type Picture struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Filename   string    `gorm:"size:255;not null;unique" json:"filename"`
	StorageKey string    `gorm:"size:255" json:"-"`
	MimeType   string    `gorm:"size:100" json:"mimeType"`
	TreeID     uint      `gorm:"not null;index" json:"treeId"`
	IsBefore   bool      `gorm:"not null" json:"isBefore"`
}
