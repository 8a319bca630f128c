package domain

import (
	"context"
	"errors"
	"time"

	"github.com/grannhjalp/grannhjalp/pkg/db/pagination"
)

type CreateNeedRequest struct {
	Title          string
	Description    string
	Category       string
	BudgetAmount   int64
	BudgetCurrency string
	Location       string
	NeededBy       *time.Time
}

type UpdateNeedRequest struct {
	ID             string
	Title          string
	Description    string
	Category       string
	BudgetAmount   int64
	BudgetCurrency string
	Location       string
	NeededBy       *time.Time
}

type ListNeedRequest struct {
	PageToken string
	PageSize  int32
	Category  string
	Status    string
	OwnerID   string
}

type ListNeedResponse struct {
	pagination.PageInfo
	Needs []Need `json:"needs"`
}

type Service interface {
	Create(ctx context.Context, req CreateNeedRequest) (Need, error)
	Update(ctx context.Context, req UpdateNeedRequest) (Need, error)
	GetByID(ctx context.Context, id string) (Need, error)
	List(ctx context.Context, req ListNeedRequest) (ListNeedResponse, error)
	Cancel(ctx context.Context, id string) (Need, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidCaller   = errors.New("invalid_caller")
	ErrInvalidID       = errors.New("invalid_need_id")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidBudget   = errors.New("invalid_budget")
	ErrNotFound        = errors.New("need_not_found")
	ErrNotOwner        = errors.New("not_need_owner")
	ErrNotOpen         = errors.New("need_not_open")
)
