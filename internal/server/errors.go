package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/grannhjalp/grannhjalp/internal/commission/domain"
	helpofferdomain "github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
	notificationdomain "github.com/grannhjalp/grannhjalp/internal/notification/domain"
	"github.com/grannhjalp/grannhjalp/internal/processor"
	profiledomain "github.com/grannhjalp/grannhjalp/internal/profile/domain"
	settlementdomain "github.com/grannhjalp/grannhjalp/internal/settlement/domain"
	webhookdomain "github.com/grannhjalp/grannhjalp/internal/webhook/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, processor.ErrUpstream):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: "payment processor unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, identity.ErrMissingToken),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, needdomain.ErrInvalidCaller),
		errors.Is(err, helpofferdomain.ErrInvalidCaller),
		errors.Is(err, profiledomain.ErrInvalidCaller),
		errors.Is(err, settlementdomain.ErrInvalidCaller),
		errors.Is(err, notificationdomain.ErrInvalidCaller):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, needdomain.ErrNotOwner),
		errors.Is(err, helpofferdomain.ErrOwnNeed),
		errors.Is(err, helpofferdomain.ErrNotParty),
		errors.Is(err, helpofferdomain.ErrNotMutual),
		errors.Is(err, settlementdomain.ErrNotPayer):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, needdomain.ErrNotOpen),
		errors.Is(err, helpofferdomain.ErrDuplicateOffer),
		errors.Is(err, helpofferdomain.ErrNeedNotOpen),
		errors.Is(err, helpofferdomain.ErrAlreadyMutual),
		errors.Is(err, helpofferdomain.ErrWithdrawn),
		errors.Is(err, helpofferdomain.ErrInvalidState),
		errors.Is(err, settlementdomain.ErrNotMutual),
		errors.Is(err, settlementdomain.ErrNeedClosed),
		errors.Is(err, settlementdomain.ErrAlreadySettled):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, needdomain.ErrNotFound),
		errors.Is(err, helpofferdomain.ErrNotFound),
		errors.Is(err, profiledomain.ErrNotFound),
		errors.Is(err, commissiondomain.ErrNotFound),
		errors.Is(err, settlementdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, needdomain.ErrInvalidID),
		errors.Is(err, needdomain.ErrInvalidTitle),
		errors.Is(err, needdomain.ErrInvalidCategory),
		errors.Is(err, needdomain.ErrInvalidBudget),
		errors.Is(err, helpofferdomain.ErrInvalidID),
		errors.Is(err, helpofferdomain.ErrInvalidNeed),
		errors.Is(err, profiledomain.ErrInvalidName),
		errors.Is(err, profiledomain.ErrInvalidEmail),
		errors.Is(err, settlementdomain.ErrInvalidOffer),
		errors.Is(err, settlementdomain.ErrInvalidAmount),
		errors.Is(err, commissiondomain.ErrInvalidAmount),
		errors.Is(err, commissiondomain.ErrInvalidRate),
		errors.Is(err, notificationdomain.ErrInvalidID),
		errors.Is(err, webhookdomain.ErrInvalidSignature),
		errors.Is(err, webhookdomain.ErrInvalidPayload):
		return true
	default:
		return false
	}
}
