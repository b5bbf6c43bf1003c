package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/config"
	"github.com/Dnl30T/Avisos-FOA/internal/middleware"
	"github.com/Dnl30T/Avisos-FOA/internal/scheduler"

	noticeHttp "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/delivery/http"
	noticeRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/repository"
	noticeService "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/service"

	searchService "github.com/Dnl30T/Avisos-FOA/internal/modules/search/service"

	userHttp "github.com/Dnl30T/Avisos-FOA/internal/modules/user/delivery/http"
	userRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/user/repository"
	userService "github.com/Dnl30T/Avisos-FOA/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// Stores are the repositories of whichever backend STORE_DRIVER selected.
type Stores struct {
	Notices noticeRepo.NoticeRepository
	Users   userRepo.UserRepository
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
}

func NewServer(cfg *config.Config, stores Stores, admins *userService.AllowList, redisClient *redis.Client) (*Server, error) {
	var index searchService.NoticeIndex
	if host := cfg.MeiliSearchHost; host != "" {
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		if cfg.MeiliMasterKey == "" {
			log.Println("WARNING: MEILI_MASTER_KEY is not set.")
		}
		meiliClient := meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		index = searchService.NewMeiliNoticeIndex(meiliClient)
	} else {
		log.Println("[server] MEILISEARCH_HOST not set, notice search disabled")
	}

	noticeSvc := noticeService.NewService(stores.Notices, noticeService.Options{
		Index:       index,
		Redis:       redisClient,
		SubjectsTTL: cfg.SubjectsCacheTTL,
	})
	sweeper := noticeService.NewExpirySweeper(noticeSvc, cfg.ExpirySweepInterval)
	noticeHandler := noticeHttp.NewNoticeHandler(noticeSvc, sweeper)

	authSvc := userService.NewAuthService(
		stores.Users,
		admins,
		userService.NewRevocationStore(redisClient),
		redisClient,
		userService.AuthConfig{
			Secret:           cfg.JWTSecret,
			TokenTTL:         cfg.JWTTTL,
			LoginThrottle:    cfg.LoginThrottle,
			MaxLoginFailures: cfg.MaxLoginFailures,
		},
	)
	authSvc.OnSessionChange(logSessionChange)
	authHandler := userHttp.NewAuthHandler(authSvc)

	jobs := scheduler.New()
	if err := jobs.RegisterJob(sweeper); err != nil {
		return nil, err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	RegisterRoutes(router, noticeHandler, authHandler, middleware.NewAuthMiddleware(authSvc))

	return &Server{
		engine: router,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: jobs,
	}, nil
}

// RegisterRoutes mounts the public feed, the auth endpoints and the admin console.
func RegisterRoutes(router gin.IRouter, notices *noticeHttp.NoticeHandler, auth *userHttp.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")

	// Public routes (students, no sign-in)
	feed := api.Group("/notices")
	{
		feed.GET("", notices.GetFeed)
		feed.GET("/history", notices.GetHistory)
		feed.GET("/subjects", notices.GetSubjects)
		feed.GET("/search", notices.Search)
		feed.GET("/:id", notices.GetNotice)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/logout", authMiddleware.RequireAuth(), auth.Logout)
		authGroup.GET("/me", authMiddleware.RequireAuth(), auth.Me)
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
	{
		admin.GET("/notices", notices.GetAllGrouped)
		admin.POST("/notices", notices.CreateNotice)
		admin.POST("/notices/sweep", notices.Sweep)
		admin.PUT("/notices/:id", notices.UpdateNotice)
		admin.POST("/notices/:id/hide", notices.HideNotice)
		admin.POST("/notices/:id/restore", notices.RestoreNotice)
	}
}

// Run listens on the configured port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	log.Printf("[server] listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve starts the background jobs and serves HTTP on ln. When ctx is cancelled it
// stops accepting connections and returns only after in-flight requests have
// finished or shutdownTimeout has elapsed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.scheduler.Start()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		s.scheduler.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.Shutdown(shutdownCtx)
	<-serveErr
	return err
}

// Shutdown stops the background jobs, then drains open HTTP connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func logSessionChange(change userService.SessionChange) {
	switch {
	case change.Current != nil:
		log.Printf("[auth] %s signed in", change.Current.Email)
	case change.Previous != nil:
		log.Printf("[auth] %s signed out", change.Previous.Email)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
