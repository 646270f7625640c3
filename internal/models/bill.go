package models

import (
	"time"

	"github.com/google/uuid"
)

// Bill statuses
const (
	BillStatusDraft         = "draft"
	BillStatusActive        = "active"
	BillStatusLockedInSwap  = "locked_in_swap"
	BillStatusPaidConfirmed = "paid_confirmed"
)

// Bill categories
const (
	BillCategoryElectric  = "electric"
	BillCategoryWater     = "water"
	BillCategoryGas       = "gas"
	BillCategoryInternet  = "internet"
	BillCategoryPhone     = "phone"
	BillCategoryRent      = "rent"
	BillCategoryInsurance = "insurance"
	BillCategoryOther     = "other"
)

var billCategories = map[string]bool{
	BillCategoryElectric:  true,
	BillCategoryWater:     true,
	BillCategoryGas:       true,
	BillCategoryInternet:  true,
	BillCategoryPhone:     true,
	BillCategoryRent:      true,
	BillCategoryInsurance: true,
	BillCategoryOther:     true,
}

func IsValidBillCategory(c string) bool {
	return billCategories[c]
}

type Bill struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	AmountMinor int64      `json:"amount_minor"`
	Category    string     `json:"category"`
	Provider    string     `json:"provider"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DaysUntilDue returns whole days from now until the due date, negative when
// overdue. ok is false when the bill carries no due date.
func (b *Bill) DaysUntilDue(now time.Time) (days int, ok bool) {
	if b.DueDate == nil {
		return 0, false
	}
	return int(b.DueDate.Sub(now).Hours() / 24), true
}
