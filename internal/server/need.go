package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	helpofferdomain "github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
)

type needRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	BudgetAmount   int64  `json:"budget_amount"`
	BudgetCurrency string `json:"budget_currency"`
	Location       string `json:"location"`
	NeededBy       string `json:"needed_by"`
}

func (s *Server) CreateNeed(c *gin.Context) {
	var req needRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	neededBy, err := parseOptionalTime(req.NeededBy)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.needSvc.Create(c.Request.Context(), needdomain.CreateNeedRequest{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		BudgetAmount:   req.BudgetAmount,
		BudgetCurrency: req.BudgetCurrency,
		Location:       req.Location,
		NeededBy:       neededBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateNeed(c *gin.Context) {
	var req needRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	neededBy, err := parseOptionalTime(req.NeededBy)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.needSvc.Update(c.Request.Context(), needdomain.UpdateNeedRequest{
		ID:             c.Param("id"),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		BudgetAmount:   req.BudgetAmount,
		BudgetCurrency: req.BudgetCurrency,
		Location:       req.Location,
		NeededBy:       neededBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetNeedByID(c *gin.Context) {
	resp, err := s.needSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The stored status never carries the contact-pending phases; they
	// are derived from the need's offers on read.
	offers, err := s.offerRepo.ListByNeed(c.Request.Context(), s.db, resp.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp.Status = helpofferdomain.ProjectNeedStatus(resp.Status, offers)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNeeds(c *gin.Context) {
	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int32  `form:"page_size"`
		Category  string `form:"category"`
		Status    string `form:"status"`
		OwnerID   string `form:"owner_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.needSvc.List(c.Request.Context(), needdomain.ListNeedRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Category:  query.Category,
		Status:    query.Status,
		OwnerID:   query.OwnerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelNeed(c *gin.Context) {
	resp, err := s.needSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteNeed(c *gin.Context) {
	if err := s.needSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
