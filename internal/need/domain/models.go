package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type NeedStatus string

const (
	NeedStatusOpen       NeedStatus = "open"
	NeedStatusInProgress NeedStatus = "in_progress"
	NeedStatusCompleted  NeedStatus = "completed"
	NeedStatusCancelled  NeedStatus = "cancelled"

	// Projected statuses. Never stored: they are derived from the state
	// of the need's offers when a need is rendered.
	NeedStatusPendingHelperContact    NeedStatus = "pending_helper_contact"
	NeedStatusPendingRequesterContact NeedStatus = "pending_requester_contact"
)

type Category string

const (
	CategoryErrands    Category = "errands"
	CategoryTransport  Category = "transport"
	CategoryGardening  Category = "gardening"
	CategoryHousehold  Category = "household"
	CategoryTech       Category = "tech"
	CategoryCompanion  Category = "companionship"
	CategoryMoving     Category = "moving"
	CategoryPetCare    Category = "pet_care"
	CategoryRepairs    Category = "repairs"
	CategoryOther      Category = "other"
)

var categories = map[Category]struct{}{
	CategoryErrands:   {},
	CategoryTransport: {},
	CategoryGardening: {},
	CategoryHousehold: {},
	CategoryTech:      {},
	CategoryCompanion: {},
	CategoryMoving:    {},
	CategoryPetCare:   {},
	CategoryRepairs:   {},
	CategoryOther:     {},
}

func ValidCategory(category Category) bool {
	_, ok := categories[category]
	return ok
}

// Need is a posted help request. Budget amounts are stored in currency
// minor units (öre for SEK).
type Need struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID     snowflake.ID `gorm:"not null;index" json:"owner_id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Category    Category     `gorm:"type:text;not null" json:"category"`

	BudgetAmount   int64  `gorm:"not null;default:0" json:"budget_amount,omitempty"`
	BudgetCurrency string `gorm:"type:text" json:"budget_currency,omitempty"`

	Location string     `gorm:"type:text" json:"location,omitempty"`
	NeededBy *time.Time `json:"needed_by,omitempty"`

	Status    NeedStatus `gorm:"type:text;not null" json:"status"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Need) TableName() string { return "needs" }

func (n Need) HasBudget() bool {
	return n.BudgetAmount > 0 && n.BudgetCurrency != ""
}
