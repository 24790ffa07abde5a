package httpserver

import (
	"github.com/gin-gonic/gin"
)

// GinHandler mounts s on a gin route. The route path replaces the server path.
func GinHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request.Clone(c.Request.Context())
		r.URL.Path = s.path
		s.ServeHTTP(c.Writer, r)
		c.Abort()
	}
}
