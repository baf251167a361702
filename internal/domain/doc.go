// Package domain defines the core record types of the netsim network simulator.
//
// This package contains plain data records with no behaviour beyond accessors
// and deep-copy helpers. All invariants that bind the records together are
// enforced by the topology package, which owns the live collections.
//
// # Core Types
//
// Device represents a simulated router, switch or host with a fixed set of
// interfaces determined by its kind.
//
// Interface represents one physical port with addressing, administrative
// status, a derived connected flag and, on switches, VLAN settings.
//
// Cable represents an undirected link between two device interfaces, typed
// by the physical medium (straight, cross, serial, fiber, console).
//
// Snapshot is a detached copy of the whole topology. It doubles as the
// persisted wire shape and as the undo/redo checkpoint.
//
// Graph is a renderer friendly view derived from a Snapshot.
//
// # Design Principles
//
// - Closed enumerations as typed string constants with Valid methods
// - No database or external dependencies
// - Clone methods produce copies that share no memory with the original
package domain
