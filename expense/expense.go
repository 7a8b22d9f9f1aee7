// Package expense implements the shared-ledger core: expense lists, expense
// items with their splits, settlement, balance aggregation, and the
// recurring-expense calendar sync.
package expense

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

var (
	ErrEmptyName        = errors.New("item name can't be empty")
	ErrEmptyListName    = errors.New("list name can't be empty")
	ErrNegativeCost     = errors.New("total cost must not be negative")
	ErrNoSplits         = errors.New("at least one split is required")
	ErrNegativeSplit    = errors.New("split amount must not be negative")
	ErrDuplicateSplit   = errors.New("duplicate split for the same profile")
	ErrSplitSumMismatch = errors.New("split amounts don't add up to the total cost")
	ErrBadFrequency     = errors.New("recurring frequency must be daily, weekly, monthly or yearly")

	ErrGroupNotFound = errors.New("group not found")
	ErrListNotFound  = errors.New("expense list not found")
	ErrListNameTaken = errors.New("a list with that name already exists in this group")
	ErrItemNotFound  = errors.New("expense not found")
	ErrSplitNotFound = errors.New("split not found")
	ErrBadReference  = errors.New("referenced list or profile does not exist")
)

type List struct {
	ID        int64      `json:"list_id"`
	Name      string     `json:"list_name"`
	GroupID   int64      `json:"group_id"`
	CreatedAt time.Time  `json:"date_created"`
	ClosedAt  *time.Time `json:"date_closed"`
}

type Item struct {
	ID                 int64           `json:"item_id"`
	Name               string          `json:"item_name"`
	ListID             int64           `json:"list_id"`
	TotalCost          decimal.Decimal `json:"item_total_cost"`
	Notes              *string         `json:"notes"`
	PaidByID           int64           `json:"paid_by_id"`
	CreatedAt          time.Time       `json:"date_created"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency *Frequency      `json:"recurring_frequency"`
	RecurringEndDate   *time.Time      `json:"recurring_end_date"`
	IsDeleted          bool            `json:"is_deleted"`
}

type Split struct {
	ID         int64           `json:"split_id"`
	ItemID     int64           `json:"item_id"`
	ProfileID  int64           `json:"profile_id"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
	IsSettled  bool            `json:"is_settled"`
	CreatedAt  time.Time       `json:"date_created"`
	SettledAt  *time.Time      `json:"date_settled"`
}

// ItemWithSplits is an expense item plus its splits and the joined display
// fields the frontend renders directly.
type ItemWithSplits struct {
	Item
	PaidByName string  `json:"paid_by_name"`
	GroupID    int64   `json:"group_id"`
	Splits     []Split `json:"splits"`
}

// SplitDetail is one split joined with its item and counterparty context,
// as served by the per-user splits listing.
type SplitDetail struct {
	Split
	ProfileName    string          `json:"profile_name"`
	ProfilePicture *string         `json:"profile_picture"`
	ItemName       string          `json:"item_name"`
	ItemTotalCost  decimal.Decimal `json:"item_total_cost"`
	ExpenseDate    time.Time       `json:"expense_date"`
	PaidByID       int64           `json:"paid_by_id"`
	PaidByName     string          `json:"paid_by_name"`
	GroupID        int64           `json:"group_id"`
	ListName       string          `json:"list_name"`
}

// Balance is a profile's derived net position, never persisted.
type Balance struct {
	ProfileID     int64           `json:"profile_id"`
	TotalOwedToMe decimal.Decimal `json:"total_owed_to_me"`
	TotalIOwe     decimal.Decimal `json:"total_i_owe"`
	NetBalance    decimal.Decimal `json:"net_balance"`
}

// CounterpartyBalance is the signed net against one other profile.
// Positive means they owe me, negative means I owe them.
type CounterpartyBalance struct {
	ProfileID int64           `json:"profile_id"`
	Name      string          `json:"profile_name"`
	Picture   *string         `json:"profile_picture"`
	Amount    decimal.Decimal `json:"amount"`
}

type RecentExpense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	GroupName   string          `json:"group_name"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Stats feeds the dashboard charts. Buckets with no activity are omitted
// rather than zero-filled; chart consumers index buckets by their start date.
type Stats struct {
	TotalSpent decimal.Decimal `json:"total_spent"`
	Weekly     []WeeklyBucket  `json:"weekly_expenses"`
	Monthly    []MonthlyBucket `json:"monthly_expenses"`
}

type WeeklyBucket struct {
	WeekStart time.Time       `json:"week_start"`
	Total     decimal.Decimal `json:"total"`
}

type MonthlyBucket struct {
	MonthStart time.Time       `json:"month_start"`
	Total      decimal.Decimal `json:"total"`
}

// SplitInput is one debtor's share in a create request.
type SplitInput struct {
	ProfileID  int64           `json:"profile_id"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
}

// CreateItem is the full create-expense request: the item and every split,
// persisted as one atomic unit.
type CreateItem struct {
	Name               string          `json:"item_name"`
	ListID             int64           `json:"list_id"`
	TotalCost          decimal.Decimal `json:"item_total_cost"`
	Notes              *string         `json:"notes"`
	PaidByID           int64           `json:"paid_by_id"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency *Frequency      `json:"recurring_frequency"`
	RecurringEndDate   *time.Time      `json:"recurring_end_date"`
	Splits             []SplitInput    `json:"splits"`
}

// splitSumTolerance is the rounding drift allowed between the item total and
// the sum of its splits: one cent per split, so an equal three-way split of
// $10.00 as 3 x $3.33 still passes.
func splitSumTolerance(numSplits int) decimal.Decimal {
	return decimal.New(int64(numSplits), -2)
}

// Validate enforces the ledger invariants before anything is written:
// non-negative total, a coherent recurrence, and splits that cover the total
// exactly (within rounding tolerance) with at most one split per profile.
func (c *CreateItem) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.TotalCost.IsNegative() {
		return ErrNegativeCost
	}
	if c.IsRecurring && (c.RecurringFrequency == nil || !c.RecurringFrequency.Valid()) {
		return ErrBadFrequency
	}
	if len(c.Splits) == 0 {
		return ErrNoSplits
	}

	sum := decimal.Zero
	seen := make(map[int64]bool, len(c.Splits))
	for _, s := range c.Splits {
		if s.AmountOwed.IsNegative() {
			return ErrNegativeSplit
		}
		if seen[s.ProfileID] {
			return ErrDuplicateSplit
		}
		seen[s.ProfileID] = true
		sum = sum.Add(s.AmountOwed)
	}

	if sum.Sub(c.TotalCost).Abs().GreaterThan(splitSumTolerance(len(c.Splits))) {
		return ErrSplitSumMismatch
	}

	return nil
}
