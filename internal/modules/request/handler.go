package request

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"profinder/internal/domain"
	"profinder/internal/middleware"
	"profinder/internal/pkg/response"
	"profinder/internal/pkg/utils"
	"profinder/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/requests")
	{
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id/respond", middleware.RequireRole(domain.RoleAdmin), h.Respond)
		g.PUT("/:id/status", middleware.RequireRole(domain.RoleAdmin), h.UpdateStatus)
	}
}

// @Summary		Create a service request
// @Tags		Requests
// @Security	BearerAuth
// @Param		body	body	CreateRequest	true	"Request"
// @Success		201	{object}	domain.ServiceRequest
// @Failure		404	{object}	map[string]interface{}	"Professional not found"
// @Failure		422	{object}	map[string]interface{}	"Professional not verified"
// @Router		/requests [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", validator.Validate(&req))
		return
	}

	created, err := h.service.Create(c.Request.Context(), middleware.ActorFrom(c), middleware.MetaFrom(c), CreateInput{
		ProfessionalID: req.ProfessionalID,
		Title:          req.Title,
		Description:    req.Description,
		EstimatedDays:  req.EstimatedDays,
		UserNotes:      req.UserNotes,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

func (h *Handler) List(c *gin.Context) {
	views, err := h.service.ListFor(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// @Summary		Approve or reject a pending request
// @Tags		Requests
// @Security	BearerAuth
// @Param		id		path	int				true	"Request ID"
// @Param		body	body	RespondRequest	true	"Decision"
// @Failure		409	{object}	map[string]interface{}	"Request is not pending"
// @Router		/requests/{id}/respond [PUT]
func (h *Handler) Respond(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", validator.Validate(&req))
		return
	}

	start, err := utils.ParseDate(req.StartDate, false)
	if err != nil {
		response.FromError(c, fmt.Errorf("%w: start_date: %s", domain.ErrInvalidInput, err.Error()))
		return
	}
	end, err := utils.ParseDate(req.EndDate, false)
	if err != nil {
		response.FromError(c, fmt.Errorf("%w: end_date: %s", domain.ErrInvalidInput, err.Error()))
		return
	}

	updated, err := h.service.AdminRespond(c.Request.Context(), middleware.ActorFrom(c), middleware.MetaFrom(c), id, RespondInput{
		Decision:  req.Decision,
		Notes:     req.Notes,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// @Summary		Move an approved request forward
// @Tags		Requests
// @Security	BearerAuth
// @Param		id		path	int				true	"Request ID"
// @Param		body	body	ProgressRequest	true	"Next status"
// @Router		/requests/{id}/status [PUT]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", validator.Validate(&req))
		return
	}

	updated, err := h.service.UpdateProgress(c.Request.Context(), middleware.ActorFrom(c), middleware.MetaFrom(c), id, ProgressInput{
		Next:  req.Status,
		Notes: req.Notes,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid request ID")
		return 0, false
	}
	return id, true
}
