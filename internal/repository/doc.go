// Package repository defines the data access interfaces for netsim.
//
// This package provides the storage abstraction for saved topologies. The
// actual implementation is in the sqlite subpackage.
//
// # Repository Interface
//
// The Repository interface stores named topology snapshots in the same JSON
// wire shape the codecs produce, alongside a few indexed summary columns used
// for listing.
//
// # SQLite Implementation
//
// The sqlite implementation uses the pure Go modernc driver with WAL mode. It
// migrates its schema on startup and is tested against in-memory databases.
package repository
