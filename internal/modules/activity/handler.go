package activity

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"profinder/internal/domain"
	"profinder/internal/middleware"
	"profinder/internal/pkg/response"
	"profinder/internal/pkg/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects an authenticated group; the audit log is superadmin only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/activity", middleware.SuperAdminOnly())
	{
		g.GET("", h.List)
		g.GET("/stats", h.Stats)
		g.GET("/:id", h.Get)
	}
}

type listQuery struct {
	ActionType string `form:"action_type"`
	ActorID    int64  `form:"actor_id"`
	ProfileID  int64  `form:"profile_id"`
	RequestID  int64  `form:"request_id"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	Search     string `form:"search"`
}

// @Summary		Query the activity log
// @Tags		Activity
// @Security	BearerAuth
// @Param		action_type	query	string	false	"Action type"
// @Param		search		query	string	false	"Free text over description and details"
// @Param		page		query	int		false	"Page (default 1)"
// @Param		limit		query	int		false	"Page size (default 20, max 100)"
// @Router		/activity [GET]
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	var p domain.PaginationParams
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	f := domain.ActivityFilter{
		ActionType: domain.ActionType(q.ActionType),
		ActorID:    q.ActorID,
		ProfileID:  q.ProfileID,
		RequestID:  q.RequestID,
		Search:     q.Search,
	}
	if f.ActionType != "" && !f.ActionType.Valid() {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Unknown action_type")
		return
	}
	var err error
	if f.StartDate, err = parseDate(q.StartDate, false); err != nil {
		response.FromError(c, err)
		return
	}
	if f.EndDate, err = parseDate(q.EndDate, true); err != nil {
		response.FromError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), f, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid activity ID")
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec)
}

// @Summary		Activity statistics
// @Tags		Activity
// @Security	BearerAuth
// @Param		start_date	query	string	false	"YYYY-MM-DD or RFC3339"
// @Param		end_date	query	string	false	"YYYY-MM-DD or RFC3339"
// @Success		200	{object}	domain.ActivityStats
// @Router		/activity/stats [GET]
func (h *Handler) Stats(c *gin.Context) {
	start, err := parseDate(c.Query("start_date"), false)
	if err != nil {
		response.FromError(c, err)
		return
	}
	end, err := parseDate(c.Query("end_date"), true)
	if err != nil {
		response.FromError(c, err)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), start, end)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	t, err := utils.ParseDate(raw, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return t, nil
}
