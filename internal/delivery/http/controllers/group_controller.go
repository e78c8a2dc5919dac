package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"basketbolista/internal/delivery/http/helpers"
	"basketbolista/internal/delivery/http/middleware"
	"basketbolista/internal/domain"
)

type GroupController struct {
	Logger  *slog.Logger
	Service domain.GroupService
}

func NewGroupController(logger *slog.Logger, svc domain.GroupService) *GroupController {
	return &GroupController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateGroupRequest is the request body for POST /groups.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Validate implements helpers.Validator.
func (r *CreateGroupRequest) Validate() []string {
	if strings.TrimSpace(r.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// GroupSuccessResponse is the success envelope carrying a group.
type GroupSuccessResponse struct {
	Data  *domain.Group     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Create godoc
// @Summary Create a group
// @Description Creates a group with the caller as admin. The caller's verified email becomes the group admin email.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateGroupRequest true "Group"
// @Success 201 {object} controllers.GroupSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /groups [post]
func (c *GroupController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity := middleware.IdentityFromContext(r.Context())
	group, err := c.Service.Create(r.Context(), identity, req.Name)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, group)
}

// Get godoc
// @Summary Get a group
// @Description Returns the group, including its co-admin list. Admin or co-admin only.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Success 200 {object} controllers.GroupSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID} [get]
func (c *GroupController) Get(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if !uuidRegex.MatchString(groupID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid groupID")
		return
	}
	identity := middleware.IdentityFromContext(r.Context())
	group, err := c.Service.GetByID(r.Context(), identity, groupID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// UpdateSettingsRequest is the request body for PATCH /groups/{groupID}/settings.
type UpdateSettingsRequest struct {
	Name     *string   `json:"name,omitempty"`
	CoAdmins *[]string `json:"co_admins,omitempty"`
}

// Validate implements helpers.Validator.
func (r *UpdateSettingsRequest) Validate() []string {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return []string{"name must not be empty"}
	}
	return nil
}

// UpdateSettings godoc
// @Summary Update group settings
// @Description Renames the group and/or replaces the co-admin email list. Admin or co-admin only. The admin's own email is never part of the co-admin list.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID (UUID)"
// @Param body body controllers.UpdateSettingsRequest true "Fields to change"
// @Success 200 {object} controllers.GroupSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/settings [patch]
func (c *GroupController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if !uuidRegex.MatchString(groupID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid groupID")
		return
	}
	var req UpdateSettingsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity := middleware.IdentityFromContext(r.Context())
	group, err := c.Service.UpdateSettings(r.Context(), identity, groupID, domain.GroupSettings{
		Name:     req.Name,
		CoAdmins: req.CoAdmins,
	})
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}
