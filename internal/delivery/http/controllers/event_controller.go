package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"basketbolista/internal/delivery/http/helpers"
	"basketbolista/internal/delivery/http/middleware"
	"basketbolista/internal/domain"
)

const dateLayout = "2006-01-02"

type EventController struct {
	Logger       *slog.Logger
	Events       domain.EventService
	Registration domain.RegistrationService
}

func NewEventController(logger *slog.Logger, events domain.EventService, registration domain.RegistrationService) *EventController {
	return &EventController{
		Logger:       logger,
		Events:       events,
		Registration: registration,
	}
}

// CreateEventRequest is the request body for POST /groups/{groupID}/events.
type CreateEventRequest struct {
	Date                  string `json:"date"`       // "YYYY-MM-DD"
	StartTime             string `json:"start_time"` // "HH:MM"
	EndTime               string `json:"end_time"`
	Venue                 string `json:"venue"`
	Capacity              int    `json:"capacity"`
	PayTo                 string `json:"pay_to"`
	IsOpenForRegistration *bool  `json:"is_open_for_registration,omitempty"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(r.Venue) == "" {
		errs = append(errs, "venue is required")
	}
	if r.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	return errs
}

// EventSuccessResponse is the success envelope carrying a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Create godoc
// @Summary Create an event
// @Description Creates an event slot for the group. Admin or co-admin only. A slot with the same date, venue and start time must not already exist.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Param body body controllers.CreateEventRequest true "Event"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if !uuidRegex.MatchString(groupID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid groupID")
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)

	event := &domain.Event{
		GroupID:               groupID,
		Date:                  date,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		Venue:                 req.Venue,
		Capacity:              req.Capacity,
		PayTo:                 req.PayTo,
		IsOpenForRegistration: true,
	}
	if req.IsOpenForRegistration != nil {
		event.IsOpenForRegistration = *req.IsOpenForRegistration
	}

	identity := middleware.IdentityFromContext(r.Context())
	if err := c.Events.Create(r.Context(), identity, event); err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// EventListSuccessResponse is the success envelope for the paginated event list.
type EventListSuccessResponse struct {
	Data struct {
		Events []*domain.Event        `json:"events"`
		Meta   helpers.PaginationMeta `json:"meta"`
	} `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListByGroup godoc
// @Summary List a group's events
// @Description Returns the group's events newest first, with offset pagination.
// @Tags events
// @Produce json
// @Param groupID path string true "Group ID (UUID)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /groups/{groupID}/events [get]
func (c *EventController) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if !uuidRegex.MatchString(groupID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid groupID")
		return
	}
	p := helpers.ParsePagination(r)
	events, total, err := c.Events.ListByGroup(r.Context(), groupID, p)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]any{
		"events": events,
		"meta":   helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// Get godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	event, err := c.Events.GetByID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Resolve godoc
// @Summary Resolve a share link to an event
// @Description Looks up the event by the share-link query parameters (groupId, date, venue, startTime, endTime).
// @Tags events
// @Produce json
// @Param groupId query string true "Group ID"
// @Param date query string true "YYYY-MM-DD"
// @Param venue query string true "Venue"
// @Param startTime query string true "HH:MM"
// @Param endTime query string true "HH:MM"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/resolve [get]
func (c *EventController) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := time.Parse(dateLayout, q.Get("date"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}
	params := domain.ShareLinkParams{
		GroupID:   q.Get("groupId"),
		Date:      date,
		Venue:     q.Get("venue"),
		StartTime: q.Get("startTime"),
		EndTime:   q.Get("endTime"),
	}
	if params.GroupID == "" || params.Venue == "" || params.StartTime == "" || params.EndTime == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "groupId, date, venue, startTime and endTime are required")
		return
	}
	event, err := c.Events.ResolveShareLink(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All
// fields are optional; only the ones present are changed.
type UpdateEventRequest struct {
	Date                  *string `json:"date,omitempty"`
	StartTime             *string `json:"start_time,omitempty"`
	EndTime               *string `json:"end_time,omitempty"`
	Venue                 *string `json:"venue,omitempty"`
	Capacity              *int    `json:"capacity,omitempty"`
	PayTo                 *string `json:"pay_to,omitempty"`
	IsOpenForRegistration *bool   `json:"is_open_for_registration,omitempty"`
}

// Update godoc
// @Summary Update an event
// @Description Partially updates event fields, including the open/closed registration toggle. Admin or co-admin only.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.UpdateEventRequest true "Fields to change"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	upd := domain.EventUpdate{
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		Venue:                 req.Venue,
		Capacity:              req.Capacity,
		PayTo:                 req.PayTo,
		IsOpenForRegistration: req.IsOpenForRegistration,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		upd.Date = &date
	}

	identity := middleware.IdentityFromContext(r.Context())
	event, err := c.Events.Update(r.Context(), identity, eventID, upd)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	identity := middleware.IdentityFromContext(r.Context())
	if err := c.Events.Delete(r.Context(), identity, eventID); err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Calendar godoc
// @Summary Download the event as an iCalendar file
// @Tags events
// @Produce plain
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "text/calendar VEVENT"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/calendar.ics [get]
func (c *EventController) Calendar(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	event, err := c.Events.GetByID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="event-`+event.ID+`.ics"`)
	_, _ = w.Write([]byte(c.Events.CalendarEntry(event)))
}

// ShareSuccessResponse is the success envelope for GET /events/{eventID}/share.
type ShareSuccessResponse struct {
	Data struct {
		Link    string `json:"link"`
		Details string `json:"details"`
	} `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Share godoc
// @Summary Get the share link and roster text for an event
// @Description Returns the deep link plus the plain-text details block (event info, numbered roster, waitlist) admins paste into group chats.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ShareSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/share [get]
func (c *EventController) Share(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	event, err := c.Events.GetByID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	ledger, err := c.Registration.Ledger(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{
		"link":    c.Events.ShareLink(event),
		"details": c.Events.DetailsText(event, ledger),
	})
}

// ShareQR godoc
// @Summary Get the share link as a QR code
// @Description Returns a 256x256 PNG encoding the event's share link, for printing or screen sharing.
// @Tags events
// @Produce png
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} binary "PNG image"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/share/qr [get]
func (c *EventController) ShareQR(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	event, err := c.Events.GetByID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	png, err := qrcode.Encode(c.Events.ShareLink(event), qrcode.Medium, 256)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "qr encode failed", "event_id", eventID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to generate qr")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
