package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
)

// SecurityHeaders sets the browser hardening headers. HSTS is sent on TLS
// requests and, behind a terminating proxy, whenever hsts is true.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		if hsts || c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// NoStore keeps responses carrying tokens or personal data out of caches
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

var scriptMarkers = []string{
	"<script",
	"javascript:",
	"onerror=",
	"onload=",
	"eval(",
	"document.cookie",
}

// InputSanitizer rejects query strings that carry script injection markers.
// Search terms reach Elasticsearch and the catalog providers verbatim.
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.RawQuery == "" {
			c.Next()
			return
		}
		for key, values := range c.Request.URL.Query() {
			for _, v := range values {
				if hasScriptMarker(v) {
					common.ErrorResponse(c, http.StatusBadRequest, "Parâmetro de consulta inválido: "+key, nil)
					return
				}
			}
		}
		c.Next()
	}
}

func hasScriptMarker(v string) bool {
	lower := strings.ToLower(v)
	for _, marker := range scriptMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// MaxBodySize caps request bodies at limit bytes; reads past it fail and
// the handler answers 400
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			common.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Arquivo muito grande", nil)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
