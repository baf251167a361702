package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"netsim/internal/domain"
	"netsim/internal/repository"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the topologies table:
// 1. Add field to topologyRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update topologyColumns constant - APPEND to end
// 4. Update toSummary() to map the new field
// 5. Update topologyInsertArgs() if the column should be writable
// 6. Add migration in sqlite.go migrate() using addColumnIfNotExists()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - topologyColumns constant
// - scanArgs() return slice
// - All SELECT queries using topologyColumns

// ============================================================================
// Topology Row Scanner
// ============================================================================

// topologyRow holds all columns from a topology query for scanning
type topologyRow struct {
	Name        string
	Version     int
	Data        string
	DeviceCount int
	CableCount  int
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match topologyColumns order exactly:
// name, version, data, device_count, cable_count, description, created_at, updated_at
func (r *topologyRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Name,        // 1
		&r.Version,     // 2
		&r.Data,        // 3
		&r.DeviceCount, // 4
		&r.CableCount,  // 5
		&r.Description, // 6
		&r.CreatedAt,   // 7
		&r.UpdatedAt,   // 8
	}
}

// toSnapshot decodes the stored wire shape
func (r *topologyRow) toSnapshot() (*domain.Snapshot, error) {
	var s domain.Snapshot
	if err := json.Unmarshal([]byte(r.Data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal topology %s: %w", r.Name, err)
	}
	if s.Devices == nil {
		s.Devices = make([]domain.Device, 0)
	}
	if s.Cables == nil {
		s.Cables = make([]domain.Cable, 0)
	}
	return &s, nil
}

// toSummary converts the scanned row to a listing entry
func (r *topologyRow) toSummary() repository.SavedTopology {
	return repository.SavedTopology{
		Name:        r.Name,
		Version:     r.Version,
		DeviceCount: r.DeviceCount,
		CableCount:  r.CableCount,
		Description: nullToString(r.Description),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// topologyColumns returns the SELECT column list for topology queries
const topologyColumns = `name, version, data, device_count, cable_count, description, created_at, updated_at`

// ============================================================================
// Topology Write Helpers
// ============================================================================

// topologyInsertArgs prepares arguments for topology UPSERT
// Returns: name, version, data, device_count, cable_count, description, created_at, updated_at
func topologyInsertArgs(name, description string, s *domain.Snapshot, now time.Time) ([]interface{}, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal topology: %w", err)
	}

	return []interface{}{
		name,
		s.Version,
		string(data),
		len(s.Devices),
		len(s.Cables),
		stringToNull(description),
		now,
		now,
	}, nil
}
