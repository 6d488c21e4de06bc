package verification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"profinder/internal/domain"
	"profinder/internal/middleware"
	"profinder/internal/pkg/response"
	"profinder/internal/pkg/validator"
	"profinder/internal/storage"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	v := rg.Group("/verification")
	{
		v.POST("/submit", h.Submit)
		v.GET("/me", h.MyProfile)
		v.PUT("/documents", h.UploadDocument)
	}

	sa := rg.Group("/superadmin", middleware.SuperAdminOnly())
	{
		sa.GET("/profiles", h.ListProfiles)
		sa.GET("/profiles/pending", h.ListPending)
		sa.PUT("/profiles/:id/decision", h.Decide)
		sa.GET("/dashboard-stats", h.DashboardStats)
		sa.GET("/users", h.ListUsers)
		sa.GET("/admins", h.ListAdmins)
	}

	rg.GET("/users/all", middleware.SuperAdminOnly(), h.ListAllUsers)
	rg.PUT("/admin/profile", middleware.RequireRole(domain.RoleAdmin), h.UpdateProfile)
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/professionals", h.ListVerified)
}

// @Summary		Submit a professional verification application
// @Tags		Verification
// @Security	BearerAuth
// @Param		body	body	SubmitRequest	true	"Application"
// @Success		201	{object}	domain.ProfessionalProfile
// @Failure		409	{object}	map[string]interface{}	"Already submitted"
// @Router		/verification/submit [POST]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", validator.Validate(&req))
		return
	}

	profile, err := h.service.Submit(c.Request.Context(), middleware.ActorFrom(c), middleware.MetaFrom(c), SubmitInput{
		Profession: req.Profession,
		Experience: req.Experience,
		City:       req.City,
		PostalCode: req.PostalCode,
		Mobile:     req.Mobile,
		Email:      req.Email,
		AadharCard: req.AadharCard,
		VoterID:    req.VoterID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, profile)
}

func (h *Handler) MyProfile(c *gin.Context) {
	profile, err := h.service.MyProfile(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// @Summary		Upload an identity document
// @Tags		Verification
// @Accept		multipart/form-data
// @Security	BearerAuth
// @Param		file	formData	file	true	"Document"
// @Param		kind	formData	string	true	"aadhar_card or voter_id"
// @Success		201	{object}	DocumentResponse
// @Failure		413,503	{object}	map[string]interface{}
// @Router		/verification/documents [PUT]
func (h *Handler) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "No file provided")
		return
	}
	kind := storage.DocumentKind(c.PostForm("kind"))

	ref, err := h.service.UploadDocument(c.Request.Context(), middleware.ActorFrom(c), kind, fh)
	if err != nil {
		switch {
		case errors.Is(err, ErrStorageDisabled):
			response.Error(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", err.Error())
		case errors.Is(err, ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			response.FromError(c, err)
		}
		return
	}
	response.Success(c, http.StatusCreated, DocumentResponse{Kind: string(kind), Ref: ref})
}

// @Summary		Edit the caller's professional profile
// @Description	Sends the profile back to pending review.
// @Tags		Verification
// @Security	BearerAuth
// @Param		body	body	ProfileUpdateRequest	true	"Profile fields"
// @Success		200	{object}	domain.ProfessionalProfile
// @Router		/admin/profile [PUT]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", validator.Validate(&req))
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), middleware.ActorFrom(c), middleware.MetaFrom(c), ProfileUpdateInput{
		Profession: req.Profession,
		Experience: req.Experience,
		City:       req.City,
		PostalCode: req.PostalCode,
		Mobile:     req.Mobile,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// ListUsers lists plain user accounts; ?role= selects another role.
func (h *Handler) ListUsers(c *gin.Context) {
	role := domain.UserRole(c.DefaultQuery("role", string(domain.RoleUser)))
	h.listAccounts(c, role)
}

func (h *Handler) ListAllUsers(c *gin.Context) {
	h.listAccounts(c, "")
}

func (h *Handler) listAccounts(c *gin.Context, role domain.UserRole) {
	users, err := h.service.ListAccounts(c.Request.Context(), middleware.ActorFrom(c), role)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// ListAdmins lists every application with its owner.
func (h *Handler) ListAdmins(c *gin.Context) {
	views, err := h.service.ListProfiles(c.Request.Context(), middleware.ActorFrom(c), "")
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

func (h *Handler) ListProfiles(c *gin.Context) {
	views, err := h.service.ListProfiles(c.Request.Context(), middleware.ActorFrom(c), domain.ProfileStatus(c.Query("status")))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

func (h *Handler) ListPending(c *gin.Context) {
	views, err := h.service.ListPending(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

// @Summary		Verify or reject a pending profile
// @Tags		SuperAdmin
// @Security	BearerAuth
// @Param		id		path	int				true	"Profile ID"
// @Param		body	body	DecisionRequest	true	"verified or rejected"
// @Failure		409	{object}	map[string]interface{}	"Already decided"
// @Router		/superadmin/profiles/{id}/decision [PUT]
func (h *Handler) Decide(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid profile ID")
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", validator.Validate(&req))
		return
	}

	profile, err := h.service.Decide(c.Request.Context(), middleware.ActorFrom(c), middleware.MetaFrom(c), id, req.Decision)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) ListVerified(c *gin.Context) {
	views, err := h.service.ListVerified(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}
