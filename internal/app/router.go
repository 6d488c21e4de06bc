package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"profinder/internal/metrics"
	"profinder/internal/middleware"
	"profinder/internal/modules/activity"
	"profinder/internal/modules/notification"
	"profinder/internal/modules/request"
	"profinder/internal/modules/verification"
	jwtsvc "profinder/internal/pkg/jwt"
	"profinder/internal/realtime"
	"profinder/internal/repository"
	"profinder/internal/storage"
)

type Deps struct {
	DB  *gorm.DB
	JWT *jwtsvc.Service
	Hub *realtime.Hub

	// Publisher defaults to Hub. Set it to a relay to fan out across instances.
	Publisher realtime.Publisher
	// Documents is optional; without it document refs are not checked.
	Documents storage.DocumentStore

	CORSAllowedOrigins []string
	MetricsEnabled     bool
}

// NewRouter wires repositories, services and handlers onto a gin engine.
func NewRouter(d Deps) *gin.Engine {
	publisher := d.Publisher
	if publisher == nil {
		publisher = d.Hub
	}

	userRepo := repository.NewUserRepository(d.DB)
	profileRepo := repository.NewProfileRepository(d.DB)
	requestRepo := repository.NewRequestRepository(d.DB)
	notificationRepo := repository.NewNotificationRepository(d.DB)
	activityRepo := repository.NewActivityRepository(d.DB)

	dispatcher := notification.NewDispatcher(notificationRepo, publisher)
	recorder := activity.NewRecorder(activityRepo)

	notificationHandler := notification.NewHandler(notification.NewService(notificationRepo))
	activityHandler := activity.NewHandler(activity.NewService(activityRepo, userRepo))
	requestHandler := request.NewHandler(request.NewService(requestRepo, profileRepo, userRepo, dispatcher, recorder))
	verificationHandler := verification.NewHandler(verification.NewService(profileRepo, userRepo, dispatcher, recorder, d.Documents))
	realtimeHandler := realtime.NewHandler(d.Hub, d.JWT)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(d.CORSAllowedOrigins))
	r.MaxMultipartMemory = verification.MaxDocumentSize

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	realtimeHandler.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	{
		// public
		verificationHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(d.JWT))
		{
			requestHandler.RegisterRoutes(protected)
			verificationHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
			activityHandler.RegisterRoutes(protected)
		}
	}

	return r
}
