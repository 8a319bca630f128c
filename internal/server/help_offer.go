package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	helpofferdomain "github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
)

func (s *Server) CreateOffer(c *gin.Context) {
	var req helpofferdomain.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.offerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOfferByID(c *gin.Context) {
	resp, err := s.offerSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOffersByNeed(c *gin.Context) {
	resp, err := s.offerSvc.ListByNeed(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveOffer(c *gin.Context) {
	resp, err := s.offerSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) WithdrawOffer(c *gin.Context) {
	if err := s.offerSvc.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetOfferContact(c *gin.Context) {
	resp, err := s.offerSvc.CounterpartContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
