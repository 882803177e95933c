// package models defines the data model for the playback engine
package models

import (
	"time"
)

// Model is a row persisted in the durable tier.
type Model interface {
	ID() string // ID returns the primary key
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // Validate reports rows that must not be written
}

// Repository is sqlite-backed access to one [Model] type.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error) // List filters by implementation-defined criteria
}
