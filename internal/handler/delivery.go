package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"proxyembed/internal/embed"
	"proxyembed/internal/httputil"
	"proxyembed/internal/service"
)

// DeliveryHandler handles render, send and policy HTTP requests
type DeliveryHandler struct {
	service *service.DeliveryService
	logger  *slog.Logger
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(service *service.DeliveryService, logger *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
		logger:  logger,
	}
}

// Render previews the plain-text degradation of an embed
// POST /v1/render
func (h *DeliveryHandler) Render(w http.ResponseWriter, r *http.Request) {
	var body RenderRequestBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := toDocument(body.Embed, body.Overwrites)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Render(r.Context(), &service.RenderRequest{
		Document:       doc,
		Content:        body.Content,
		Mentions:       toMentions(body.AllowedMentions),
		Locale:         body.Locale,
		TimestampStyle: body.TimestampStyle,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, RenderResponse{
		Text:            result.Text,
		AllowedMentions: fromMentions(result.Mentions),
	})
}

// Send delivers an embed, degrading to text when the destination's policy
// disallows embeds
// POST /v1/send
func (h *DeliveryHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body SendRequestBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := toDocument(body.Embed, body.Overwrites)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Send(r.Context(), &service.SendRequest{
		Destination:    body.Destination,
		Document:       doc,
		Content:        body.Content,
		Mentions:       toMentions(body.AllowedMentions),
		Locale:         body.Locale,
		TimestampStyle: body.TimestampStyle,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	response := SendResponse{ID: msg.ID, Mode: string(msg.Mode)}
	if msg.Mode == embed.ModeText {
		response.Text = msg.Text
	}
	httputil.RespondJSON(w, http.StatusOK, response)
}

// SetPolicy stores a destination's embed policy
// PUT /v1/destinations/{id}/embed-policy
func (h *DeliveryHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	destination := r.PathValue("id")
	if destination == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Destination is required")
		return
	}

	var body PolicyRequestBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.AllowEmbeds == nil {
		httputil.RespondError(w, http.StatusBadRequest, "allow_embeds is required")
		return
	}

	if err := h.service.SetPolicy(r.Context(), destination, *body.AllowEmbeds); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, PolicyResponse{
		Destination: destination,
		AllowEmbeds: *body.AllowEmbeds,
	})
}

// GetPolicy retrieves a destination's stored embed policy
// GET /v1/destinations/{id}/embed-policy
func (h *DeliveryHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	destination := r.PathValue("id")
	if destination == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Destination is required")
		return
	}

	allowed, err := h.service.GetPolicy(r.Context(), destination)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, PolicyResponse{
		Destination: destination,
		AllowEmbeds: allowed,
	})
}

// ClearPolicy removes a destination's stored embed policy
// DELETE /v1/destinations/{id}/embed-policy
func (h *DeliveryHandler) ClearPolicy(w http.ResponseWriter, r *http.Request) {
	destination := r.PathValue("id")
	if destination == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Destination is required")
		return
	}

	if err := h.service.ClearPolicy(r.Context(), destination); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListDeliveries returns the recent delivery history for a destination
// GET /v1/deliveries?destination=...&limit=...
func (h *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	if destination == "" {
		httputil.RespondError(w, http.StatusBadRequest, "destination query parameter is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	records, err := h.service.Deliveries(r.Context(), destination, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, records)
}

// HealthCheck reports service liveness
// GET /health
func (h *DeliveryHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
