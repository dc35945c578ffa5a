package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the built frontend from the configured directory and
// installs the fallback for unmatched paths. Unknown /api paths always get
// the JSON error shape; other paths resolve to index.html so the board's
// client side routes survive a reload.
func (s *Server) mountStatic() {
	index := s.frontendIndex()

	s.engine.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if index == "" || path == "/api" || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found: " + c.Request.Method + " " + path})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
			return
		}
		c.File(index)
	})

	if index == "" {
		return
	}
	s.engine.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	assetsDir := filepath.Join(s.staticDir, "assets")
	if isDir(assetsDir) {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
	}
	for _, name := range []string{"favicon.ico", "robots.txt"} {
		if p := filepath.Join(s.staticDir, name); isFile(p) {
			s.engine.StaticFile("/"+name, p)
		}
	}
}

// frontendIndex returns the index.html of the static directory, or "" when
// the server runs API only.
func (s *Server) frontendIndex() string {
	if s.staticDir == "" {
		s.logger.Info("static directory not configured; API only mode")
		return ""
	}
	if !isDir(s.staticDir) {
		s.logger.Warn("static directory missing; API only mode", slog.String("path", s.staticDir))
		return ""
	}
	index := filepath.Join(s.staticDir, "index.html")
	if !isFile(index) {
		s.logger.Warn("index.html not found; API only mode", slog.String("path", index))
		return ""
	}
	return index
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
