package repository

import (
	"context"
	"time"

	"netsim/internal/domain"
)

// SavedTopology is the listing summary of a stored topology
type SavedTopology struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Version     int       `json:"version"`
	DeviceCount int       `json:"device_count"`
	CableCount  int       `json:"cable_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository defines the interface for saved topology access
type Repository interface {
	// SaveTopology stores s under name, replacing any previous save but
	// keeping its creation time
	SaveTopology(ctx context.Context, name, description string, s *domain.Snapshot) error

	// GetTopology returns nil, nil when no topology has that name
	GetTopology(ctx context.Context, name string) (*domain.Snapshot, error)

	ListTopologies(ctx context.Context) ([]SavedTopology, error)
	DeleteTopology(ctx context.Context, name string) error

	// Close releases resources
	Close() error
}
