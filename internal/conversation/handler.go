package conversation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

// Handler wires HTTP requests to the reply pipeline.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// Message handles POST /api/v1/conversations/message: it runs the pipeline
// synchronously and returns the generated reply. A guard denial maps to
// 204 No Content so pollers can distinguish "skip" from failure.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageContext
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.LeadID) == "" {
		http.Error(w, "lead_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.engine.Respond(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to generate reply", "error", err, "lead_id", req.LeadID)
		http.Error(w, "Failed to generate reply", http.StatusInternalServerError)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
