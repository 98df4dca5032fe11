package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/identification"
)

// IdentifyRequest is the identification payload: one probe image key and
// an optional similarity threshold overriding the configured default.
type IdentifyRequest struct {
	Image     string   `json:"image"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// IdentifyResponse is a successful identification.
type IdentifyResponse struct {
	Message      string  `json:"message"`
	FaceID       string  `json:"faceId"`
	Confidence   float64 `json:"confidence"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Organization string  `json:"organization,omitempty"`
}

// IdentifyHandler handles face identification requests.
type IdentifyHandler struct {
	cfg  *config.Config
	flow *identification.Flow
	log  *zap.Logger
}

// NewIdentifyHandler creates an identification handler.
func NewIdentifyHandler(cfg *config.Config, flow *identification.Flow, log *zap.Logger) *IdentifyHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentifyHandler{cfg: cfg, flow: flow, log: log}
}

// parseIdentifyRequest parses an identification request, returning an error message if invalid.
func parseIdentifyRequest(r *http.Request) (IdentifyRequest, string) {
	var req IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errInvalidRequestBody
	}
	if req.Image == "" {
		return req, "image is required"
	}
	return req, ""
}

// Identify finds the best match for a probe image and returns the
// identity enrolled for it.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseIdentifyRequest(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	threshold := h.cfg.Biometric.MatchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	probe := biometric.ImageRef{Bucket: h.cfg.Storage.Bucket, Key: req.Image}
	res, err := h.flow.Identify(r.Context(), probe, threshold)
	if err != nil {
		h.log.Warn("identification failed", zap.Error(err))
		respondError(w, statusForFault(err), err.Error())
		return
	}
	if res == nil {
		// A clean miss, distinct from every failure class.
		respondError(w, http.StatusNotFound, "no matching face found")
		return
	}

	respondJSON(w, http.StatusOK, IdentifyResponse{
		Message:      "Succeed to find similar face",
		FaceID:       res.FaceID,
		Confidence:   res.Confidence,
		Name:         res.Attributes.Name,
		Email:        res.Attributes.Email,
		Organization: res.Attributes.Organization,
	})
}
