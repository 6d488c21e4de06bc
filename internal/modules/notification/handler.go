package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"profinder/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/notifications")
	{
		g.GET("", h.GetNotifications)
		g.GET("/unread-count", h.GetUnreadCount)
		g.PATCH("/:id/read", h.MarkAsRead)
		g.PATCH("/read-all", h.MarkAllAsRead)
	}
}

// GetNotifications lists the caller's notifications, newest first.
// @Summary		List notifications
// @Tags		Notifications
// @Security	BearerAuth
// @Param		limit		query	int		false	"Page size (default 20, max 100)"
// @Param		offset		query	int		false	"Offset"
// @Param		unread_only	query	bool	false	"Only unread"
// @Success		200	{object}	NotificationListResponse
// @Router		/notifications [GET]
func (h *Handler) GetNotifications(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	q := ListQuery{Limit: 20}
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			q.Limit = v
		}
	}
	if s := c.Query("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			q.Offset = v
		}
	}
	q.UnreadOnly, _ = strconv.ParseBool(c.Query("unread_only"))

	res, err := h.service.List(c.Request.Context(), userID, q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	items := make([]*NotificationResponse, len(res.Notifications))
	for i := range res.Notifications {
		items[i] = NotificationResponseFromEntity(&res.Notifications[i])
	}

	response.Success(c, http.StatusOK, NotificationListResponse{
		Notifications: items,
		UnreadCount:   res.UnreadCount,
		Total:         res.Total,
	})
}

// @Summary		Unread notification count
// @Tags		Notifications
// @Security	BearerAuth
// @Success		200	{object}	UnreadCountResponse
// @Router		/notifications/unread-count [GET]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	unread, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, UnreadCountResponse{UnreadCount: unread})
}

// @Summary		Mark one notification read
// @Tags		Notifications
// @Security	BearerAuth
// @Param		id	path	int	true	"Notification ID"
// @Success		200	{object}	NotificationResponse
// @Failure		403	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/notifications/{id}/read [PATCH]
func (h *Handler) MarkAsRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, NotificationResponseFromEntity(n))
}

// @Summary		Mark all notifications read
// @Tags		Notifications
// @Security	BearerAuth
// @Success		200	{object}	MarkAllReadResponse
// @Router		/notifications/read-all [PATCH]
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	n, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, MarkAllReadResponse{Updated: n})
}
