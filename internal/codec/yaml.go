package codec

import (
	"fmt"
	"io"

	"netsim/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export of the same fields as the JSON shape
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a topology snapshot from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var s domain.Snapshot
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if s.Devices == nil {
		s.Devices = make([]domain.Device, 0)
	}
	if s.Cables == nil {
		s.Cables = make([]domain.Cable, 0)
	}
	for i := range s.Devices {
		if s.Devices[i].Interfaces == nil {
			s.Devices[i].Interfaces = make([]domain.Interface, 0)
		}
	}

	return &s, nil
}

// Export exports a topology snapshot to YAML
func (c *YAMLCodec) Export(s *domain.Snapshot, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
