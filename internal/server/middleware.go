package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grannhjalp/grannhjalp/internal/identity"
)

// AuthRequired validates the bearer token and stores the caller's user
// ID on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			AbortWithError(c, identity.ErrMissingToken)
			return
		}

		userID, err := s.verifier.Verify(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := identity.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
