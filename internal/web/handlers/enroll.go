package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/enrollment"
	"github.com/facegate/facegate/internal/identity"
)

// EnrollRequest is the enrollment payload: identity attributes plus the
// object keys of images already uploaded to the bucket.
type EnrollRequest struct {
	Images       []string `json:"images"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Organization string   `json:"organization,omitempty"`
}

// EnrollResponse confirms a completed enrollment.
type EnrollResponse struct {
	Message string `json:"message"`
}

// EnrollFailureResponse reports a failed enrollment. Compensated tells
// the caller whether the rollback left both systems clean.
type EnrollFailureResponse struct {
	Error       string `json:"error"`
	Compensated bool   `json:"compensated"`
}

// EnrollHandler handles face enrollment requests.
type EnrollHandler struct {
	cfg         *config.Config
	coordinator *enrollment.Coordinator
	log         *zap.Logger
}

// NewEnrollHandler creates an enrollment handler.
func NewEnrollHandler(cfg *config.Config, coordinator *enrollment.Coordinator, log *zap.Logger) *EnrollHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EnrollHandler{cfg: cfg, coordinator: coordinator, log: log}
}

// parseEnrollRequest parses an enrollment request, returning an error message if invalid.
// Semantic validation stays in the coordinator; this only rejects broken JSON.
func parseEnrollRequest(r *http.Request) (EnrollRequest, string) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errInvalidRequestBody
	}
	return req, ""
}

// Enroll registers a person's images against their identity attributes.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseEnrollRequest(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	images := make([]biometric.ImageRef, len(req.Images))
	for i, key := range req.Images {
		images[i] = biometric.ImageRef{Bucket: h.cfg.Storage.Bucket, Key: key}
	}

	err := h.coordinator.Enroll(r.Context(), enrollment.Request{
		Images: images,
		Attributes: identity.Attributes{
			Name:         req.Name,
			Email:        req.Email,
			Organization: req.Organization,
		},
	})
	if err != nil {
		var failure *enrollment.Failure
		if errors.As(err, &failure) {
			h.log.Warn("enrollment failed",
				zap.Int("images", len(req.Images)),
				zap.Bool("compensated", failure.Compensated),
				zap.Error(err))
			respondJSON(w, statusForFault(err), EnrollFailureResponse{
				Error:       err.Error(),
				Compensated: failure.Compensated,
			})
			return
		}
		respondError(w, statusForFault(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, EnrollResponse{Message: "Success. Information recorded"})
}
