package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"netsim/internal/domain"
)

// JSONCodec handles the JSON wire shape of a topology
type JSONCodec struct {
	now func() time.Time
}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{now: time.Now}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a topology snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var s domain.Snapshot
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if s.Devices == nil {
		s.Devices = make([]domain.Device, 0)
	}
	if s.Cables == nil {
		s.Cables = make([]domain.Cable, 0)
	}

	return &s, nil
}

// Export writes s as indented JSON, stamping the export time
func (c *JSONCodec) Export(s *domain.Snapshot, w io.Writer) error {
	out := s.Clone()
	out.Timestamp = c.now().UTC().Format(time.RFC3339)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
