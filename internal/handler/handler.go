package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"netsim/internal/codec"
	"netsim/internal/domain"
	"netsim/internal/history"
	"netsim/internal/netaddr"
	"netsim/internal/repository/sqlite"
	"netsim/internal/service"
	"netsim/internal/topology"
)

// SimulatorHandler handles simulator API requests
type SimulatorHandler struct {
	svc *service.Simulator
}

// NewSimulatorHandler creates a new simulator handler
func NewSimulatorHandler(svc *service.Simulator) *SimulatorHandler {
	return &SimulatorHandler{svc: svc}
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetTopology returns the full snapshot
func (h *SimulatorHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Snapshot(), http.StatusOK)
}

// GetGraph returns the render view
func (h *SimulatorHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Graph(), http.StatusOK)
}

// ClearTopology removes every device and cable
func (h *SimulatorHandler) ClearTopology(w http.ResponseWriter, r *http.Request) {
	h.svc.Clear()
	writeJSON(w, map[string]string{"status": "cleared"}, http.StatusOK)
}

// ListDevices returns all devices
func (h *SimulatorHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Devices(), http.StatusOK)
}

// GetDevice returns a single device
func (h *SimulatorHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	d, err := h.svc.Device(id)
	if err != nil {
		writeServiceError(w, "Failed to get device", err)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

// CreateDeviceRequest places a new device on the canvas
type CreateDeviceRequest struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// CreateDevice creates a new device
func (h *SimulatorHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req CreateDeviceRequest
	if !decode(w, r, &req) {
		return
	}

	kind, err := domain.ParseDeviceKind(req.Kind)
	if err != nil {
		writeError(w, "Invalid device kind", err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.svc.CreateDevice(kind, domain.NewPosition(req.X, req.Y))
	if err != nil {
		writeServiceError(w, "Failed to create device", err)
		return
	}
	writeJSON(w, d, http.StatusCreated)
}

// UpdateDeviceRequest renames and/or moves a device
type UpdateDeviceRequest struct {
	Name *string  `json:"name,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// UpdateDevice updates an existing device
func (h *SimulatorHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req UpdateDeviceRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Name != nil {
		if err := h.svc.Rename(id, *req.Name); err != nil {
			writeServiceError(w, "Failed to rename device", err)
			return
		}
	}

	if req.X != nil || req.Y != nil {
		current, err := h.svc.Device(id)
		if err != nil {
			writeServiceError(w, "Failed to move device", err)
			return
		}
		pos := current.Position()
		if req.X != nil {
			pos.X = *req.X
		}
		if req.Y != nil {
			pos.Y = *req.Y
		}
		if err := h.svc.MoveDevice(id, pos); err != nil {
			writeServiceError(w, "Failed to move device", err)
			return
		}
	}

	d, err := h.svc.Device(id)
	if err != nil {
		writeServiceError(w, "Failed to get device", err)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

// DeleteDevice deletes a device and its cables
func (h *SimulatorHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteDevice(id); err != nil {
		writeServiceError(w, "Failed to delete device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfigRequest configures a whole device. Exactly the section matching the
// device kind is used.
type ConfigRequest struct {
	Host       *topology.HostSettings       `json:"host,omitempty"`
	Interfaces []topology.InterfaceSettings `json:"interfaces,omitempty"`
	Ports      []topology.PortSettings      `json:"ports,omitempty"`
}

// ConfigureDevice applies a configuration form to a device
func (h *SimulatorHandler) ConfigureDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req ConfigRequest
	if !decode(w, r, &req) {
		return
	}

	var err error
	switch {
	case req.Host != nil:
		err = h.svc.ConfigureHost(id, *req.Host)
	case req.Interfaces != nil:
		err = h.svc.ConfigureInterfaces(id, req.Interfaces)
	case req.Ports != nil:
		err = h.svc.ConfigurePorts(id, req.Ports)
	default:
		writeError(w, "Invalid request body", "one of host, interfaces or ports is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeServiceError(w, "Failed to configure device", err)
		return
	}

	d, err := h.svc.Device(id)
	if err != nil {
		writeServiceError(w, "Failed to get device", err)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

// InterfaceRequest configures one port. Routers use ip, mask and admin_up;
// switches use vlan and mode.
type InterfaceRequest struct {
	IP      string          `json:"ip"`
	Mask    string          `json:"mask"`
	AdminUp bool            `json:"admin_up"`
	VLAN    int             `json:"vlan"`
	Mode    domain.PortMode `json:"mode"`
}

// ConfigureInterface applies settings to one port of a router or switch
func (h *SimulatorHandler) ConfigureInterface(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}

	var req InterfaceRequest
	if !decode(w, r, &req) {
		return
	}

	d, err := h.svc.Device(id)
	if err != nil {
		writeServiceError(w, "Failed to configure interface", err)
		return
	}

	switch d.Kind {
	case domain.DeviceKindSwitch:
		err = h.svc.ConfigurePort(id, index, topology.PortSettings{VLAN: req.VLAN, Mode: req.Mode})
	default:
		err = h.svc.ConfigureInterface(id, index, topology.InterfaceSettings{IP: req.IP, Mask: req.Mask, AdminUp: req.AdminUp})
	}
	if err != nil {
		writeServiceError(w, "Failed to configure interface", err)
		return
	}

	d, err = h.svc.Device(id)
	if err != nil {
		writeServiceError(w, "Failed to get device", err)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

// ListCables returns the cable list
func (h *SimulatorHandler) ListCables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Cables(), http.StatusOK)
}

// CreateCableRequest connects two devices
type CreateCableRequest struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Kind string `json:"kind"`
}

// CreateCable connects two devices on their first free ports
func (h *SimulatorHandler) CreateCable(w http.ResponseWriter, r *http.Request) {
	var req CreateCableRequest
	if !decode(w, r, &req) {
		return
	}

	kind, err := domain.ParseCableKind(req.Kind)
	if err != nil {
		writeError(w, "Invalid cable kind", err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.Connect(req.From, req.To, kind)
	if err != nil {
		writeServiceError(w, "Failed to connect devices", err)
		return
	}
	writeJSON(w, c, http.StatusCreated)
}

// DeleteCable removes the cable at an index
func (h *SimulatorHandler) DeleteCable(w http.ResponseWriter, r *http.Request) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}

	if _, err := h.svc.Disconnect(index); err != nil {
		writeServiceError(w, "Failed to delete cable", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// writeServiceError maps a service error onto a status code
func writeServiceError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", msg, err)
	}
	writeError(w, msg, err.Error(), status)
}

func statusFor(err error) int {
	var fieldErr *netaddr.FieldError
	switch {
	case errors.Is(err, topology.ErrDeviceNotFound),
		errors.Is(err, topology.ErrCableNotFound),
		errors.Is(err, service.ErrTopologyNotFound):
		return http.StatusNotFound

	case errors.Is(err, topology.ErrNoFreePort),
		errors.Is(err, topology.ErrPortInUse),
		errors.Is(err, topology.ErrIncompatibleCable),
		errors.Is(err, topology.ErrSelfConnection),
		errors.Is(err, history.ErrNothingToUndo),
		errors.Is(err, history.ErrNothingToRedo):
		return http.StatusConflict

	case errors.Is(err, topology.ErrVersionMismatch),
		errors.Is(err, topology.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity

	case errors.As(err, &fieldErr),
		errors.Is(err, topology.ErrUnknownKind),
		errors.Is(err, topology.ErrUnknownCable),
		errors.Is(err, topology.ErrInvalidInterface),
		errors.Is(err, topology.ErrNotSupported),
		errors.Is(err, topology.ErrNameRequired),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, sqlite.ErrInvalidName):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrNoRepository):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, fmt.Sprintf("Invalid %s", name), fmt.Sprintf("%q is not a number", raw), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
