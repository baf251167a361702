package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"netsim/internal/reach"
)

// Routes registers every API endpoint on mux
func (h *SimulatorHandler) Routes(mux *http.ServeMux) {
	// Topology
	mux.HandleFunc("GET /api/topology", h.GetTopology)
	mux.HandleFunc("DELETE /api/topology", h.ClearTopology)
	mux.HandleFunc("GET /api/graph", h.GetGraph)

	// Devices
	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("POST /api/devices", h.CreateDevice)
	mux.HandleFunc("GET /api/devices/{id}", h.GetDevice)
	mux.HandleFunc("PUT /api/devices/{id}", h.UpdateDevice)
	mux.HandleFunc("DELETE /api/devices/{id}", h.DeleteDevice)
	mux.HandleFunc("PUT /api/devices/{id}/config", h.ConfigureDevice)
	mux.HandleFunc("PUT /api/devices/{id}/interfaces/{index}", h.ConfigureInterface)
	mux.HandleFunc("POST /api/devices/{id}/cli", h.Submit)
	mux.HandleFunc("POST /api/devices/{id}/ping", h.Ping)

	// Cables
	mux.HandleFunc("GET /api/cables", h.ListCables)
	mux.HandleFunc("POST /api/cables", h.CreateCable)
	mux.HandleFunc("DELETE /api/cables/{index}", h.DeleteCable)

	// History
	mux.HandleFunc("GET /api/history", h.GetHistory)
	mux.HandleFunc("POST /api/undo", h.Undo)
	mux.HandleFunc("POST /api/redo", h.Redo)

	// Import/Export
	mux.HandleFunc("GET /api/export/{format}", h.Export)
	mux.HandleFunc("POST /api/import/{format}", h.Import)
	mux.HandleFunc("POST /api/lab", h.LoadLab)

	// Saved topologies
	mux.HandleFunc("GET /api/saved", h.ListSaved)
	mux.HandleFunc("PUT /api/saved/{name}", h.Save)
	mux.HandleFunc("POST /api/saved/{name}/open", h.Open)
	mux.HandleFunc("DELETE /api/saved/{name}", h.DeleteSaved)

	// Tools
	mux.HandleFunc("GET /api/subnet", h.Subnet)
}

// CLIRequest is one line typed into a device terminal
type CLIRequest struct {
	Line string `json:"line"`
}

// Submit runs one CLI line on a device
func (h *SimulatorHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req CLIRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.svc.Submit(id, req.Line)
	if err != nil {
		writeServiceError(w, "Failed to run command", err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

// PingRequest names the address to ping
type PingRequest struct {
	Target string `json:"target"`
}

// PingResponse carries the structured report and its terminal rendering
type PingResponse struct {
	Report reach.Report `json:"report"`
	Output string       `json:"output"`
}

// Ping pings an address from a device
func (h *SimulatorHandler) Ping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	var req PingRequest
	if !decode(w, r, &req) {
		return
	}

	rep, err := h.svc.Ping(id, req.Target)
	if err != nil {
		writeServiceError(w, "Failed to ping", err)
		return
	}
	writeJSON(w, PingResponse{Report: rep, Output: rep.String()}, http.StatusOK)
}

// HistoryResponse reports available undo and redo steps
type HistoryResponse struct {
	Undo int `json:"undo"`
	Redo int `json:"redo"`
}

// GetHistory returns the history depth
func (h *SimulatorHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	h.writeHistory(w)
}

// Undo reverts the latest change
func (h *SimulatorHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Undo(); err != nil {
		writeServiceError(w, "Failed to undo", err)
		return
	}
	h.writeHistory(w)
}

// Redo reapplies the latest undone change
func (h *SimulatorHandler) Redo(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Redo(); err != nil {
		writeServiceError(w, "Failed to redo", err)
		return
	}
	h.writeHistory(w)
}

func (h *SimulatorHandler) writeHistory(w http.ResponseWriter) {
	undo, redo := h.svc.HistoryDepth()
	writeJSON(w, HistoryResponse{Undo: undo, Redo: redo}, http.StatusOK)
}

var contentTypes = map[string]string{
	"json":              "application/json",
	"yaml":              "application/x-yaml",
	"ansible-inventory": "application/x-yaml",
}

var fileNames = map[string]string{
	"json":              "topology.json",
	"yaml":              "topology.yml",
	"ansible-inventory": "inventory.yml",
}

// Export writes the current topology in the requested format
func (h *SimulatorHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")

	// Render first so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.svc.Export(format, &buf); err != nil {
		writeServiceError(w, "Failed to export topology", err)
		return
	}

	contentType, ok := contentTypes[format]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if name, ok := fileNames[format]; ok {
		w.Header().Set("Content-Disposition", "attachment; filename="+name)
	}
	w.Write(buf.Bytes())
}

// Import replaces the current topology with the request body
func (h *SimulatorHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Import(r.PathValue("format"), r.Body); err != nil {
		writeServiceError(w, "Failed to import topology", err)
		return
	}
	h.writeLoaded(w)
}

// LoadLab replaces the current topology with a YAML lab definition
func (h *SimulatorHandler) LoadLab(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.LoadLabData(data); err != nil {
		// Lab errors are input errors unless they map to something specific
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, "Failed to load lab", err.Error(), status)
		return
	}
	h.writeLoaded(w)
}

func (h *SimulatorHandler) writeLoaded(w http.ResponseWriter) {
	snap := h.svc.Snapshot()
	writeJSON(w, map[string]int{
		"devices": len(snap.Devices),
		"cables":  len(snap.Cables),
	}, http.StatusOK)
}

// ListSaved returns saved topologies
func (h *SimulatorHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.svc.ListSaved(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list saved topologies", err)
		return
	}
	writeJSON(w, saved, http.StatusOK)
}

// SaveRequest carries an optional description for a save
type SaveRequest struct {
	Description string `json:"description"`
}

// Save stores the current topology under a name
func (h *SimulatorHandler) Save(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req SaveRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	if err := h.svc.Save(r.Context(), name, req.Description); err != nil {
		writeServiceError(w, "Failed to save topology", err)
		return
	}
	writeJSON(w, map[string]string{"status": "saved", "name": name}, http.StatusOK)
}

// Open replaces the current topology with a saved one
func (h *SimulatorHandler) Open(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Open(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, "Failed to open topology", err)
		return
	}
	h.writeLoaded(w)
}

// DeleteSaved removes a saved topology
func (h *SimulatorHandler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSaved(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, "Failed to delete saved topology", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subnet runs the subnet calculator for ?ip=...&prefix=...
func (h *SimulatorHandler) Subnet(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	prefix, err := strconv.Atoi(r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, "Invalid prefix", fmt.Sprintf("%q is not a number", r.URL.Query().Get("prefix")), http.StatusBadRequest)
		return
	}

	sn, err := h.svc.Subnet(ip, prefix)
	if err != nil {
		writeError(w, "Invalid subnet", err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, sn, http.StatusOK)
}
