// Package web provides the gin presentation layer for go-nntparc.
package web

import (
	"log"
	"net/http"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-while/go-nntparc/internal/config"
	"github.com/go-while/go-nntparc/internal/database"
	"github.com/go-while/go-nntparc/internal/processor"
)

// WebServer serves the archive UI and the manual refresh trigger.
type WebServer struct {
	DB     *database.Database
	Router *gin.Engine
	Config *config.Config
	Proc   *processor.Processor
}

// NewServer creates a web server instance with routes configured.
func NewServer(db *database.Database, cfg *config.Config, proc *processor.Processor) *WebServer {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	// SSL headers only when the app itself terminates TLS, not behind a
	// reverse proxy
	if cfg.Web.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	router.Use(secure.New(secureConfig))

	router.LoadHTMLGlob("web/templates/*.html")

	server := &WebServer{
		DB:     db,
		Router: router,
		Config: cfg,
		Proc:   proc,
	}
	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow:\n")
	})
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.Router.GET("/", s.homePage)
	s.Router.GET("/groups/:id", s.groupPage)
	s.Router.GET("/threads/:id", s.threadPage)

	s.Router.GET("/update", s.requireAdmin, s.updateHandler)

	s.Router.GET("/api/v1/stats", s.getStats)
	s.Router.GET("/api/v1/messages/:id/references", s.getMessageReferences)
}

// Run blocks serving HTTP on the configured listen address.
func (s *WebServer) Run() error {
	log.Printf("[WEB] listening on %s", s.Config.Web.ListenAddr)
	return s.Router.Run(s.Config.Web.ListenAddr)
}
