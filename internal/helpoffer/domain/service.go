package domain

import (
	"context"
	"errors"

	profiledomain "github.com/grannhjalp/grannhjalp/internal/profile/domain"
)

var (
	ErrInvalidCaller  = errors.New("invalid_caller")
	ErrInvalidID      = errors.New("invalid_offer_id")
	ErrInvalidNeed    = errors.New("invalid_need_id")
	ErrNotFound       = errors.New("offer_not_found")
	ErrOwnNeed        = errors.New("cannot_offer_on_own_need")
	ErrNeedNotOpen    = errors.New("need_not_open")
	ErrDuplicateOffer = errors.New("offer_already_exists")
	ErrNotParty       = errors.New("caller_not_party_to_offer")
	ErrWithdrawn      = errors.New("offer_withdrawn")
	ErrInvalidState   = errors.New("invalid_offer_state")
	ErrAlreadyMutual  = errors.New("offer_mutually_approved")
	ErrNotMutual      = errors.New("offer_not_mutually_approved")
)

type CreateOfferRequest struct {
	NeedID  string `json:"need_id"`
	Message string `json:"message"`

	// SelfApproved defaults to true when absent; submitting an offer
	// normally carries the helper's own approval.
	SelfApproved *bool `json:"self_approved"`
}

type ApproveResult struct {
	Offer   *HelpOffer             `json:"offer"`
	Mutual  bool                   `json:"mutual"`
	Changed bool                   `json:"changed"`
	Contact *profiledomain.Contact `json:"counterpart_contact,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateOfferRequest) (*HelpOffer, error)
	GetByID(ctx context.Context, id string) (*HelpOffer, error)
	ListByNeed(ctx context.Context, needID string) ([]HelpOffer, error)
	Approve(ctx context.Context, id string) (*ApproveResult, error)
	Withdraw(ctx context.Context, id string) error
	CounterpartContact(ctx context.Context, id string) (*profiledomain.Contact, error)
}
