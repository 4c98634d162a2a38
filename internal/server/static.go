package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled dashboard frontend. Every non-API path
// without a matching asset falls through to index.html so the client-side
// router owns deep links like /a3/:id.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}
	if info, err := os.Stat(s.staticDir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	haveIndex := false
	if _, err := os.Stat(indexPath); err == nil {
		haveIndex = true
		s.engine.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})
	} else {
		s.logger.Warn("index.html not found", "path", indexPath)
	}

	for _, dir := range []string{"assets", "static"} {
		full := filepath.Join(s.staticDir, dir)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			s.engine.StaticFS("/"+dir, gin.Dir(full, true))
		}
	}
	if _, err := os.Stat(filepath.Join(s.staticDir, "favicon.ico")); err == nil {
		s.engine.StaticFile("/favicon.ico", filepath.Join(s.staticDir, "favicon.ico"))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		if haveIndex {
			c.File(indexPath)
			return
		}
		c.Status(http.StatusNotFound)
	})
}
