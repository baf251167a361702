package codec

import (
	"errors"
	"fmt"
	"io"

	"netsim/internal/domain"
)

// ErrUnsupportedFormat is returned when no codec handles a format name
var ErrUnsupportedFormat = errors.New("unsupported format")

// Importer interface for reading topology snapshots from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Snapshot, error)
	Format() string
}

// Exporter interface for writing topology snapshots to various formats
type Exporter interface {
	Export(s *domain.Snapshot, w io.Writer) error
	Format() string
}

// Importers returns every registered importer keyed by format
func Importers() map[string]Importer {
	return map[string]Importer{
		"json": NewJSONCodec(),
		"yaml": NewYAMLCodec(),
	}
}

// Exporters returns every registered exporter keyed by format
func Exporters() map[string]Exporter {
	return map[string]Exporter{
		"json":              NewJSONCodec(),
		"yaml":              NewYAMLCodec(),
		"ansible-inventory": NewAnsibleCodec(),
	}
}

// ImporterFor looks up an importer by format name
func ImporterFor(format string) (Importer, error) {
	if imp, ok := Importers()[normalize(format)]; ok {
		return imp, nil
	}
	return nil, fmt.Errorf("%w for import: %s", ErrUnsupportedFormat, format)
}

// ExporterFor looks up an exporter by format name
func ExporterFor(format string) (Exporter, error) {
	if exp, ok := Exporters()[normalize(format)]; ok {
		return exp, nil
	}
	return nil, fmt.Errorf("%w for export: %s", ErrUnsupportedFormat, format)
}

func normalize(format string) string {
	switch format {
	case "", "application/json":
		return "json"
	case "yml", "application/yaml", "application/x-yaml":
		return "yaml"
	case "ansible":
		return "ansible-inventory"
	}
	return format
}
