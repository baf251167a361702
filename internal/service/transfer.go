package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"netsim/internal/codec"
	"netsim/internal/loader"
	"netsim/internal/netaddr"
	"netsim/internal/repository"
)

var (
	// ErrNoRepository is returned by the saved topology operations when the
	// simulator runs without storage
	ErrNoRepository = errors.New("no topology storage configured")

	// ErrTopologyNotFound is returned when opening an unknown saved topology
	ErrTopologyNotFound = errors.New("saved topology not found")
)

// Export writes the current state in the given format
func (s *Simulator) Export(format string, w io.Writer) error {
	exp, err := codec.ExporterFor(format)
	if err != nil {
		return err
	}
	snap := s.Snapshot()
	return exp.Export(&snap, w)
}

// Import replaces the current state with a snapshot read in the given format
func (s *Simulator) Import(format string, r io.Reader) error {
	imp, err := codec.ImporterFor(format)
	if err != nil {
		return err
	}
	snap, err := imp.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", imp.Format(), err)
	}
	return s.Load(*snap)
}

// Save stores the current state under name
func (s *Simulator) Save(ctx context.Context, name, description string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	snap := s.Snapshot()
	if err := s.repo.SaveTopology(ctx, name, description, &snap); err != nil {
		return err
	}
	log.Printf("Saved topology %q: %d devices, %d cables", name, len(snap.Devices), len(snap.Cables))
	return nil
}

// Open replaces the current state with a saved topology
func (s *Simulator) Open(ctx context.Context, name string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	snap, err := s.repo.GetTopology(ctx, name)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("%w: %s", ErrTopologyNotFound, name)
	}
	return s.Load(*snap)
}

// ListSaved lists saved topologies, most recently updated first
func (s *Simulator) ListSaved(ctx context.Context) ([]repository.SavedTopology, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListTopologies(ctx)
}

// DeleteSaved removes a saved topology
func (s *Simulator) DeleteSaved(ctx context.Context, name string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	return s.repo.DeleteTopology(ctx, name)
}

// LoadLab replaces the current state with a lab built from a YAML file
func (s *Simulator) LoadLab(path string) error {
	topo, err := loader.LoadYAML(path)
	if err != nil {
		return fmt.Errorf("lab %s: %w", path, err)
	}
	if err := s.Load(topo.Snapshot()); err != nil {
		return fmt.Errorf("lab %s: %w", path, err)
	}
	log.Printf("Loaded lab %s: %d devices, %d cables", path, len(topo.Devices()), len(topo.Cables()))
	return nil
}

// LoadLabData is LoadLab for YAML already in memory
func (s *Simulator) LoadLabData(data []byte) error {
	topo, err := loader.ParseYAML(data)
	if err != nil {
		return err
	}
	return s.Load(topo.Snapshot())
}

// Subnet runs the subnet calculator
func (s *Simulator) Subnet(ip string, prefix int) (netaddr.Subnet, error) {
	return netaddr.Calculate(ip, prefix)
}

// NextSubnet returns the block of the same size that follows sub. It fails
// when sub ends at 255.255.255.255.
func (s *Simulator) NextSubnet(sub netaddr.Subnet) (netaddr.Subnet, error) {
	start, err := netaddr.Next(sub.Broadcast)
	if err != nil {
		return netaddr.Subnet{}, err
	}
	return netaddr.Calculate(start, sub.Prefix)
}
