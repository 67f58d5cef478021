package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"studyon/internal/billing"
	"studyon/internal/config"
	"studyon/internal/course"
	"studyon/internal/lesson"
	"studyon/internal/notification"
	"studyon/internal/session"
	"studyon/internal/user"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *sqlx.DB
	config     *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, billingClient *billing.Client, sessions *session.Manager, notifier *notification.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))
	router.Use(session.Middleware(sessions))

	courseRepo := course.NewRepository(db)
	courseService := course.NewService(courseRepo, billingClient, notifier)
	courseHandler := course.NewHandler(courseService)

	lessonRepo := lesson.NewRepository(db)
	lessonService := lesson.NewService(lessonRepo, courseRepo)
	lessonHandler := lesson.NewHandler(lessonService)

	userHandler := user.NewHandler(billingClient, sessions, notifier, cfg.SessionTTLHours*3600)

	// Каталог открыт всем, покупки и уроки только после входа
	router.GET("/courses", courseHandler.List)
	router.GET("/courses/:courseID", courseHandler.Get)

	auth := router.Group("/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
		auth.POST("/logout", userHandler.Logout)
	}

	protected := router.Group("/")
	protected.Use(session.RequireAuth())
	{
		protected.GET("/me", userHandler.Me)
		protected.GET("/me/transactions", userHandler.Transactions)
		protected.POST("/courses/:courseID/pay", courseHandler.Pay)
		protected.GET("/courses/:courseID/lessons", lessonHandler.ListByCourse)
		protected.GET("/lessons/:lessonID", lessonHandler.Get)
	}

	admin := router.Group("/admin")
	admin.Use(session.RequireAuth(), session.RequireRole("ROLE_SUPER_ADMIN"))
	{
		admin.POST("/courses", courseHandler.Create)
		admin.PUT("/courses/:courseID", courseHandler.Update)
		admin.DELETE("/courses/:courseID", courseHandler.Delete)
		admin.POST("/courses/:courseID/lessons", lessonHandler.Create)
		admin.PUT("/lessons/:lessonID", lessonHandler.Update)
		admin.DELETE("/lessons/:lessonID", lessonHandler.Delete)
		admin.GET("/test-email", TestEmail(notifier))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
