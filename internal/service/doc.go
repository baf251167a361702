// Package service implements the simulator facade used by the HTTP API and
// the consoles.
//
// A Simulator owns one live topology together with its undo history and the
// device shells. Every operation takes the simulator lock, so callers on
// different goroutines see a consistent sequence of changes.
//
// # Events
//
// Operations that change state publish an Event on the EventBus after the
// change has been applied. The SSE hub forwards them to browsers.
//
// # History
//
// Mutating operations validate their input first, checkpoint the current
// state, and only then change the topology. A rejected request therefore
// leaves both the topology and the undo stack untouched.
package service
