// Package handler implements the HTTP API of the simulator.
//
// # Handlers
//
// SimulatorHandler exposes devices, cables, the device shells, ping,
// undo/redo, import/export and saved topologies over JSON. Routes registers
// every endpoint on a ServeMux using method and path patterns.
//
// Middleware provides panic recovery, CORS and request logging.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure. Lookups of
// unknown devices, cables or saved topologies answer 404; rejected
// connections and empty history answer 409; unreadable snapshots answer 422.
//
// # Server-Sent Events
//
// The /events endpoint is served by the hub package and streams every
// simulator event to connected browsers.
package handler
