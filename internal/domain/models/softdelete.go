package models

import "time"

// SoftDelete is embedded (inline) by every collection that is never hard-deleted.
// Reads exclude documents where IsDeleted is true.
type SoftDelete struct {
	IsDeleted bool       `bson:"is_deleted" json:"-"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`
}

