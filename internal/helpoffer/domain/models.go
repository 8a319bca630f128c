package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
)

// OfferState is the explicit approval state of a help offer. Both
// parties must approve before contact details are disclosed and the
// offer becomes payable.
type OfferState string

const (
	StateSubmitted         OfferState = "submitted"
	StateRequesterApproved OfferState = "requester_approved"
	StateHelperApproved    OfferState = "helper_approved"
	StateMutuallyApproved  OfferState = "mutually_approved"
	StateWithdrawn         OfferState = "withdrawn"
)

func (s OfferState) RequesterApproved() bool {
	return s == StateRequesterApproved || s == StateMutuallyApproved
}

func (s OfferState) HelperApproved() bool {
	return s == StateHelperApproved || s == StateMutuallyApproved
}

func (s OfferState) MutuallyApproved() bool {
	return s == StateMutuallyApproved
}

// ApprovalRole identifies which party an approval comes from.
type ApprovalRole string

const (
	RoleRequester ApprovalRole = "requester"
	RoleHelper    ApprovalRole = "helper"
)

// NextState applies an approval to the state machine. Re-approving is a
// no-op (changed=false), never an error. Approving a withdrawn offer is
// illegal.
func NextState(current OfferState, role ApprovalRole) (OfferState, bool, error) {
	if current == StateWithdrawn {
		return current, false, ErrWithdrawn
	}

	switch role {
	case RoleRequester:
		switch current {
		case StateSubmitted:
			return StateRequesterApproved, true, nil
		case StateHelperApproved:
			return StateMutuallyApproved, true, nil
		case StateRequesterApproved, StateMutuallyApproved:
			return current, false, nil
		}
	case RoleHelper:
		switch current {
		case StateSubmitted:
			return StateHelperApproved, true, nil
		case StateRequesterApproved:
			return StateMutuallyApproved, true, nil
		case StateHelperApproved, StateMutuallyApproved:
			return current, false, nil
		}
	}
	return current, false, ErrInvalidState
}

// InitialState maps the helper's self-approval at submission time onto
// the state machine.
func InitialState(selfApproved bool) OfferState {
	if selfApproved {
		return StateHelperApproved
	}
	return StateSubmitted
}

// HelpOffer is one helper's offer on a need. At most one per
// (need, helper) pair; the need's owner can never be the helper.
type HelpOffer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	NeedID    snowflake.ID `gorm:"not null;uniqueIndex:ux_help_offers_need_helper,priority:1" json:"need_id"`
	HelperID  snowflake.ID `gorm:"not null;uniqueIndex:ux_help_offers_need_helper,priority:2" json:"helper_id"`
	Message   string       `gorm:"type:text" json:"message,omitempty"`
	State     OfferState   `gorm:"type:text;not null" json:"state"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (HelpOffer) TableName() string { return "help_offers" }

// ProjectNeedStatus derives the informational contact-pending statuses
// from offer state. Only open needs project; any other stored status is
// authoritative.
func ProjectNeedStatus(stored needdomain.NeedStatus, offers []HelpOffer) needdomain.NeedStatus {
	if stored != needdomain.NeedStatusOpen {
		return stored
	}

	projected := stored
	for _, offer := range offers {
		switch offer.State {
		case StateMutuallyApproved:
			return needdomain.NeedStatusInProgress
		case StateRequesterApproved:
			projected = needdomain.NeedStatusPendingHelperContact
		case StateHelperApproved:
			if projected == needdomain.NeedStatusOpen {
				projected = needdomain.NeedStatusPendingRequesterContact
			}
		}
	}
	return projected
}
