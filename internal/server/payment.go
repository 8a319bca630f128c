package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settlementdomain "github.com/grannhjalp/grannhjalp/internal/settlement/domain"
)

func (s *Server) InitiatePayment(c *gin.Context) {
	var req settlementdomain.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.settlementSvc.InitiatePayment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEarnings(c *gin.Context) {
	resp, err := s.settlementSvc.ListEarnings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
