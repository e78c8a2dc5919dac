package controllers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"basketbolista/internal/delivery/http/helpers"
	"basketbolista/internal/delivery/http/middleware"
	"basketbolista/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// RegisterRequest is the request body for POST /events/{eventID}/registrations.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	PIN   string `json:"pin,omitempty"`
}

// Validate implements helpers.Validator. Full validation lives in the
// service; this only rejects shapes that can never be right.
func (r *RegisterRequest) Validate() []string {
	if strings.TrimSpace(r.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// RegisterSuccessResponse is the success envelope for POST /events/{eventID}/registrations (201).
type RegisterSuccessResponse struct {
	Data  *domain.RankedRegistration `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// Register godoc
// @Summary Register a name for an event
// @Description Appends a registration to the event ledger. The derived status (confirmed or waitlisted) and 1-based rank within that group are returned. A PIN (4-10 chars) makes the registration self-service-cancellable later; a bearer token binds it to the caller's identity instead.
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.RegisterRequest true "Registration"
// @Success 201 {object} controllers.RegisterSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict | event_closed | event_past"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	ranked, err := c.Service.Register(r.Context(), eventID, domain.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
		PIN:   req.PIN,
	}, identity)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ranked)
}

// CancelRequest is the optional request body for DELETE .../registrations/{registrationID}.
type CancelRequest struct {
	PIN string `json:"pin,omitempty"`
}

// decodeOptionalBody decodes a JSON body when one is present. An empty body
// is fine; cancellation may be authorized by identity alone.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dest); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return false
	}
	return true
}

// LedgerSuccessResponse is the success envelope carrying a ledger view.
type LedgerSuccessResponse struct {
	Data  *domain.LedgerView `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Removes a registration. Authorized by group admin identity, owning identity, or the registration PIN supplied in the body. Cancelling a confirmed registration promotes the earliest waitlisted one. Past events accept admin cancellations only.
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param registrationID path string true "Registration ID (UUID)"
// @Param body body controllers.CancelRequest false "PIN credential"
// @Success 200 {object} controllers.LedgerSuccessResponse "Updated ledger"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_past"
// @Router /events/{eventID}/registrations/{registrationID} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	registrationID := r.PathValue("registrationID")
	if !uuidRegex.MatchString(eventID) || !uuidRegex.MatchString(registrationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid id")
		return
	}
	var req CancelRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	ledger, err := c.Service.Cancel(r.Context(), eventID, registrationID, domain.Credential{
		Identity: middleware.IdentityFromContext(r.Context()),
		PIN:      req.PIN,
	})
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ledger)
}

// SetPaidRequest is the request body for PATCH .../registrations/{registrationID}/paid.
type SetPaidRequest struct {
	Paid bool   `json:"paid"`
	PIN  string `json:"pin,omitempty"`
}

// SetPaid godoc
// @Summary Toggle the paid flag on a registration
// @Description Sets the paid flag. Same authorization contract as cancel. Setting the current value again succeeds (idempotent).
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param registrationID path string true "Registration ID (UUID)"
// @Param body body controllers.SetPaidRequest true "Paid flag and optional PIN"
// @Success 204 "No content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_past"
// @Router /events/{eventID}/registrations/{registrationID}/paid [patch]
func (c *RegistrationController) SetPaid(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	registrationID := r.PathValue("registrationID")
	if !uuidRegex.MatchString(eventID) || !uuidRegex.MatchString(registrationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid id")
		return
	}
	var req SetPaidRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	err := c.Service.SetPaid(r.Context(), eventID, registrationID, req.Paid, domain.Credential{
		Identity: middleware.IdentityFromContext(r.Context()),
		PIN:      req.PIN,
	})
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ledger godoc
// @Summary Get the event ledger
// @Description Returns the derived confirmed and waitlisted lists, each ranked 1-based in timestamp order.
// @Tags registrations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.LedgerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/ledger [get]
func (c *RegistrationController) Ledger(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	ledger, err := c.Service.Ledger(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ledger)
}
