package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"articles-server/confs"
	"articles-server/db"
	"articles-server/handlers"
	httpHandler "articles-server/handlers/http"
	"articles-server/repositories"
	"articles-server/services"
	"articles-server/usecases"
	"articles-server/web"
	"articles-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	app      *gin.Engine
	db       db.Database
	sessions repositories.SessionRepository
	feed     *ws.Manager
	cfg      *confs.Config
	log      *zap.Logger
}

type Option func(*Server)

// WithSessionStore replaces the database-backed session store.
func WithSessionStore(repo repositories.SessionRepository) Option {
	return func(s *Server) { s.sessions = repo }
}

func NewServer(cfg *confs.Config, database db.Database, log *zap.Logger, opts ...Option) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		app: gin.New(),
		db:  database,
		cfg: cfg,
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

func (s *Server) setupRoutes() error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	s.app.SetHTMLTemplate(tmpl)

	s.app.Use(RequestLogger(s.log), gin.Recovery())

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	// Initialize repositories
	userRepo := repositories.NewUserPgRepository(s.db)
	articleRepo := repositories.NewArticlePgRepository(s.db)
	sessionRepo := s.sessions
	if sessionRepo == nil {
		sessionRepo = repositories.NewSessionPgRepository(s.db)
	}

	// Article events go to websocket subscribers
	s.feed = ws.NewManager(s.log)

	// Initialize use cases
	authUseCase := usecases.NewAuthUseCase(
		userRepo,
		sessionRepo,
		services.NewBcryptHasher(s.cfg.PasswordCost),
		services.NewTokenCodec(s.cfg.Session.Secret),
		s.cfg.Session.Lifetime,
		s.cfg.Session.RememberLifetime,
	)
	articleUseCase := usecases.NewArticleUseCase(articleRepo, s.feed, s.cfg.EnforceOwnership)

	// Initialize handlers
	sessions := httpHandler.NewSessions(authUseCase, httpHandler.CookieConfig{
		Name:   s.cfg.Session.CookieName,
		Secure: s.cfg.Session.CookieSecure,
	}, s.log)
	authHandler := httpHandler.NewAuthHandler(authUseCase, sessions, s.log)
	articleHandler := httpHandler.NewArticleHandler(articleUseCase, s.log)
	apiHandler := httpHandler.NewAPIHandler(articleUseCase, s.log)
	feedHandler := handlers.NewFeedHandler(s.feed, s.log)

	flashes := httpHandler.NewFlashCodec(s.cfg.Session.Secret, s.cfg.Session.CookieSecure)

	site := s.app.Group("/", flashes.Attach, sessions.LoadIdentity)
	{
		// Auth routes
		guest := site.Group("", httpHandler.RedirectIfAuthenticated)
		{
			guest.GET("/register", authHandler.RegisterPage)
			guest.POST("/register", authHandler.Register)
			guest.GET("/login", authHandler.LoginPage)
			guest.POST("/login", authHandler.Login)
		}
		site.GET("/logout", authHandler.Logout)

		// Article pages
		pages := site.Group("", httpHandler.RequireLogin)
		{
			pages.GET("/", articleHandler.Home)
			pages.GET("/my_articles", articleHandler.MyArticles)
			pages.GET("/my_articles/new", articleHandler.NewPage)
			pages.POST("/my_articles/new", articleHandler.Create)
			pages.GET("/my_articles/:id", articleHandler.Show)
			pages.GET("/my_articles/:id/update", articleHandler.UpdatePage)
			pages.POST("/my_articles/:id/update", articleHandler.Update)
			pages.POST("/my_articles/:id/delete", articleHandler.Delete)
		}

		// JSON API
		api := site.Group("/api/v1", s.corsMiddleware(), httpHandler.RequireAPILogin)
		{
			api.GET("/articles", apiHandler.GetAllArticles)
			api.GET("/articles/:id", apiHandler.GetArticle)
			api.GET("/my_articles", apiHandler.GetMyArticles)
			api.GET("/feed/subscribers", feedHandler.Subscribers)
			// cors answers preflights before this handler runs
			api.OPTIONS("/*path", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})
		}

		site.GET("/ws/articles", httpHandler.RequireAPILogin, feedHandler.HandleArticleFeed)
	}

	return nil
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) > 0 {
		config.AllowOrigins = s.cfg.AllowedOrigins
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{"GET", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	return cors.New(config)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.feed.Close()
	return err
}
