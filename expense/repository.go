package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/homebase-app/homebase/database"
)

// Store is the persistence contract for the expense ledger: writes keep the
// item/split invariants, reads reduce the split table into balances and
// statistics.
type Store interface {
	CreateList(ctx context.Context, groupID int64, name string) (*List, error)
	ListsForGroup(ctx context.Context, groupID int64) ([]List, error)

	CreateExpense(ctx context.Context, create CreateItem) (*ItemWithSplits, error)
	ExpensesForGroup(ctx context.Context, groupID int64, includeDeleted bool) ([]ItemWithSplits, error)
	GetExpense(ctx context.Context, itemID int64) (*ItemWithSplits, error)
	SoftDelete(ctx context.Context, itemID int64) (bool, error)

	SettleSplit(ctx context.Context, splitID int64) (*SplitDetail, error)
	SplitsForProfile(ctx context.Context, profileID int64, groupID *int64, settled *bool) ([]SplitDetail, error)

	NetBalance(ctx context.Context, profileID int64, groupID *int64) (*Balance, error)
	BalancesByCounterparty(ctx context.Context, profileID int64, groupID *int64) ([]CounterpartyBalance, error)
	RecentExpenses(ctx context.Context, profileID int64, limit int) ([]RecentExpense, error)
	Statistics(ctx context.Context, profileID int64, groupID *int64, weeks int) (*Stats, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) CreateList(ctx context.Context, groupID int64, name string) (*List, error) {
	if name == "" {
		return nil, ErrEmptyListName
	}

	list := &List{Name: name, GroupID: groupID}

	query := `
        INSERT INTO expense_list (list_name, group_id)
        VALUES ($1, $2)
        RETURNING list_id, date_created
    `
	err := r.db.QueryRowContext(ctx, query, name, groupID).Scan(&list.ID, &list.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrListNameTaken
		}
		if database.IsForeignKeyViolation(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("inserting expense list: %w", err)
	}

	return list, nil
}

func (r *repository) ListsForGroup(ctx context.Context, groupID int64) ([]List, error) {
	query := `
        SELECT list_id, list_name, group_id, date_created, date_closed
        FROM expense_list
        WHERE group_id = $1
        ORDER BY date_created ASC
    `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := make([]List, 0)
	for rows.Next() {
		var (
			l      List
			closed sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.GroupID, &l.CreatedAt, &closed); err != nil {
			return nil, err
		}
		if closed.Valid {
			l.ClosedAt = &closed.Time
		}
		lists = append(lists, l)
	}

	return lists, rows.Err()
}

// CreateExpense validates the request, then persists the item and every
// split as one transaction: either all rows commit or none do.
func (r *repository) CreateExpense(ctx context.Context, create CreateItem) (*ItemWithSplits, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item := &ItemWithSplits{
		Item: Item{
			Name:               create.Name,
			ListID:             create.ListID,
			TotalCost:          create.TotalCost,
			Notes:              create.Notes,
			PaidByID:           create.PaidByID,
			IsRecurring:        create.IsRecurring,
			RecurringFrequency: create.RecurringFrequency,
			RecurringEndDate:   create.RecurringEndDate,
		},
	}

	var frequency *string
	if create.RecurringFrequency != nil {
		f := string(*create.RecurringFrequency)
		frequency = &f
	}

	insertItem := `
        INSERT INTO expense_item (item_name, list_id, item_total_cost, notes, paid_by_id, is_recurring, recurring_frequency, recurring_end_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING item_id, date_created
    `
	err = tx.QueryRowContext(ctx, insertItem,
		create.Name,
		create.ListID,
		create.TotalCost,
		create.Notes,
		create.PaidByID,
		create.IsRecurring,
		frequency,
		create.RecurringEndDate,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrBadReference
		}
		return nil, fmt.Errorf("inserting expense item: %w", err)
	}

	insertSplit := `
        INSERT INTO expense_split (item_id, profile_id, amount_owed)
        VALUES ($1, $2, $3)
        RETURNING split_id, date_created
    `
	for _, in := range create.Splits {
		split := Split{
			ItemID:     item.ID,
			ProfileID:  in.ProfileID,
			AmountOwed: in.AmountOwed,
		}
		err := tx.QueryRowContext(ctx, insertSplit, item.ID, in.ProfileID, in.AmountOwed).
			Scan(&split.ID, &split.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, ErrDuplicateSplit
			}
			if database.IsForeignKeyViolation(err) {
				return nil, ErrBadReference
			}
			return nil, fmt.Errorf("inserting expense split: %w", err)
		}
		item.Splits = append(item.Splits, split)
	}

	// Display fields the caller needs for the response and for calendar sync.
	contextQuery := `
        SELECT p.profile_name, l.group_id
        FROM expense_list l, profile p
        WHERE l.list_id = $1 AND p.profile_id = $2
    `
	err = tx.QueryRowContext(ctx, contextQuery, item.ListID, item.PaidByID).Scan(&item.PaidByName, &item.GroupID)
	if err != nil {
		return nil, fmt.Errorf("resolving expense context: %w", err)
	}

	return item, tx.Commit()
}

const itemColumns = `
    i.item_id, i.item_name, i.list_id, i.item_total_cost, i.notes, i.paid_by_id,
    i.date_created, i.is_recurring, i.recurring_frequency, i.recurring_end_date,
    i.is_deleted, p.profile_name, l.group_id
`

func scanItem(row interface{ Scan(...any) error }) (*ItemWithSplits, error) {
	var (
		item      ItemWithSplits
		notes     sql.NullString
		frequency sql.NullString
		endDate   sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.ListID,
		&item.TotalCost,
		&notes,
		&item.PaidByID,
		&item.CreatedAt,
		&item.IsRecurring,
		&frequency,
		&endDate,
		&item.IsDeleted,
		&item.PaidByName,
		&item.GroupID,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		item.Notes = &notes.String
	}
	if frequency.Valid {
		f := Frequency(frequency.String)
		item.RecurringFrequency = &f
	}
	if endDate.Valid {
		item.RecurringEndDate = &endDate.Time
	}
	return &item, nil
}

func (r *repository) ExpensesForGroup(ctx context.Context, groupID int64, includeDeleted bool) ([]ItemWithSplits, error) {
	query := `
        SELECT ` + itemColumns + `
        FROM expense_item i
        INNER JOIN expense_list l ON i.list_id = l.list_id
        INNER JOIN profile p ON i.paid_by_id = p.profile_id
        WHERE l.group_id = $1 AND ($2 OR NOT i.is_deleted)
        ORDER BY i.date_created DESC
    `

	rows, err := r.db.QueryContext(ctx, query, groupID, includeDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ItemWithSplits, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		splits, err := r.splitsForItem(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Splits = splits
	}

	return items, nil
}

// GetExpense returns the item with its splits, treating soft-deleted items
// as absent.
func (r *repository) GetExpense(ctx context.Context, itemID int64) (*ItemWithSplits, error) {
	query := `
        SELECT ` + itemColumns + `
        FROM expense_item i
        INNER JOIN expense_list l ON i.list_id = l.list_id
        INNER JOIN profile p ON i.paid_by_id = p.profile_id
        WHERE i.item_id = $1 AND NOT i.is_deleted
    `

	item, err := scanItem(r.db.QueryRowContext(ctx, query, itemID))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	item.Splits, err = r.splitsForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *repository) splitsForItem(ctx context.Context, itemID int64) ([]Split, error) {
	query := `
        SELECT split_id, item_id, profile_id, amount_owed, is_settled, date_created, date_settled
        FROM expense_split
        WHERE item_id = $1
        ORDER BY split_id ASC
    `

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	splits := make([]Split, 0)
	for rows.Next() {
		var (
			s       Split
			settled sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.ItemID, &s.ProfileID, &s.AmountOwed, &s.IsSettled, &s.CreatedAt, &settled); err != nil {
			return nil, err
		}
		if settled.Valid {
			s.SettledAt = &settled.Time
		}
		splits = append(splits, s)
	}

	return splits, rows.Err()
}

// SoftDelete marks the item deleted; already-deleted and missing items both
// report false. Calendar cleanup is the caller's follow-up.
func (r *repository) SoftDelete(ctx context.Context, itemID int64) (bool, error) {
	query := `
        UPDATE expense_item
        SET is_deleted = TRUE
        WHERE item_id = $1 AND NOT is_deleted
    `
	result, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SettleSplit flips the split to settled. Settling an already-settled split
// is a no-op that keeps the original settlement timestamp.
func (r *repository) SettleSplit(ctx context.Context, splitID int64) (*SplitDetail, error) {
	query := `
        UPDATE expense_split
        SET is_settled = TRUE, date_settled = COALESCE(date_settled, CURRENT_TIMESTAMP)
        WHERE split_id = $1
        RETURNING split_id
    `
	var id int64
	err := r.db.QueryRowContext(ctx, query, splitID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrSplitNotFound
	}
	if err != nil {
		return nil, err
	}

	return r.splitDetail(ctx, splitID)
}

const splitDetailColumns = `
    s.split_id, s.item_id, s.profile_id, s.amount_owed, s.is_settled, s.date_created, s.date_settled,
    p.profile_name, p.picture, i.item_name, i.item_total_cost, i.date_created,
    i.paid_by_id, payer.profile_name, l.group_id, l.list_name
`

const splitDetailJoins = `
    FROM expense_split s
    INNER JOIN expense_item i ON s.item_id = i.item_id
    INNER JOIN expense_list l ON i.list_id = l.list_id
    INNER JOIN profile p ON s.profile_id = p.profile_id
    INNER JOIN profile payer ON i.paid_by_id = payer.profile_id
`

func scanSplitDetail(row interface{ Scan(...any) error }) (*SplitDetail, error) {
	var (
		d       SplitDetail
		settled sql.NullTime
	)
	err := row.Scan(
		&d.ID,
		&d.ItemID,
		&d.ProfileID,
		&d.AmountOwed,
		&d.IsSettled,
		&d.CreatedAt,
		&settled,
		&d.ProfileName,
		&d.ProfilePicture,
		&d.ItemName,
		&d.ItemTotalCost,
		&d.ExpenseDate,
		&d.PaidByID,
		&d.PaidByName,
		&d.GroupID,
		&d.ListName,
	)
	if err != nil {
		return nil, err
	}
	if settled.Valid {
		d.SettledAt = &settled.Time
	}
	return &d, nil
}

func (r *repository) splitDetail(ctx context.Context, splitID int64) (*SplitDetail, error) {
	query := `SELECT ` + splitDetailColumns + splitDetailJoins + ` WHERE s.split_id = $1`

	detail, err := scanSplitDetail(r.db.QueryRowContext(ctx, query, splitID))
	if err == sql.ErrNoRows {
		return nil, ErrSplitNotFound
	}
	return detail, err
}

// SplitsForProfile returns every split where the profile is debtor or payer,
// newest first, optionally filtered by group and settlement state.
// Soft-deleted items are always excluded.
func (r *repository) SplitsForProfile(ctx context.Context, profileID int64, groupID *int64, settled *bool) ([]SplitDetail, error) {
	query := `
        SELECT ` + splitDetailColumns + splitDetailJoins + `
        WHERE NOT i.is_deleted
          AND (s.profile_id = $1 OR i.paid_by_id = $1)
          AND ($2::BIGINT IS NULL OR l.group_id = $2)
          AND ($3::BOOLEAN IS NULL OR s.is_settled = $3)
        ORDER BY s.date_created DESC
    `

	rows, err := r.db.QueryContext(ctx, query, profileID, groupID, settled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]SplitDetail, 0)
	for rows.Next() {
		d, err := scanSplitDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}

	return details, rows.Err()
}

// NetBalance reduces the unsettled splits of non-deleted items into what is
// owed to the profile and what the profile owes.
func (r *repository) NetBalance(ctx context.Context, profileID int64, groupID *int64) (*Balance, error) {
	query := `
        SELECT
            COALESCE(SUM(CASE WHEN i.paid_by_id = $1 AND s.profile_id <> $1 THEN s.amount_owed END), 0),
            COALESCE(SUM(CASE WHEN s.profile_id = $1 AND i.paid_by_id <> $1 THEN s.amount_owed END), 0)
        FROM expense_split s
        INNER JOIN expense_item i ON s.item_id = i.item_id
        INNER JOIN expense_list l ON i.list_id = l.list_id
        WHERE NOT s.is_settled
          AND NOT i.is_deleted
          AND (s.profile_id = $1 OR i.paid_by_id = $1)
          AND ($2::BIGINT IS NULL OR l.group_id = $2)
    `

	balance := &Balance{ProfileID: profileID}
	err := r.db.QueryRowContext(ctx, query, profileID, groupID).Scan(&balance.TotalOwedToMe, &balance.TotalIOwe)
	if err != nil {
		return nil, err
	}
	balance.NetBalance = balance.TotalOwedToMe.Sub(balance.TotalIOwe)

	return balance, nil
}

// BalancesByCounterparty folds both debt directions into one signed amount
// per counterparty. Zero nets are dropped, largest credit first.
func (r *repository) BalancesByCounterparty(ctx context.Context, profileID int64, groupID *int64) ([]CounterpartyBalance, error) {
	query := `
        SELECT b.counterparty_id, p.profile_name, p.picture, SUM(b.amount) AS amount
        FROM (
            SELECT s.profile_id AS counterparty_id, s.amount_owed AS amount
            FROM expense_split s
            INNER JOIN expense_item i ON s.item_id = i.item_id
            INNER JOIN expense_list l ON i.list_id = l.list_id
            WHERE i.paid_by_id = $1 AND s.profile_id <> $1
              AND NOT s.is_settled AND NOT i.is_deleted
              AND ($2::BIGINT IS NULL OR l.group_id = $2)

            UNION ALL

            SELECT i.paid_by_id, -s.amount_owed
            FROM expense_split s
            INNER JOIN expense_item i ON s.item_id = i.item_id
            INNER JOIN expense_list l ON i.list_id = l.list_id
            WHERE s.profile_id = $1 AND i.paid_by_id <> $1
              AND NOT s.is_settled AND NOT i.is_deleted
              AND ($2::BIGINT IS NULL OR l.group_id = $2)
        ) b
        INNER JOIN profile p ON b.counterparty_id = p.profile_id
        GROUP BY b.counterparty_id, p.profile_name, p.picture
        HAVING SUM(b.amount) <> 0
        ORDER BY amount DESC
    `

	rows, err := r.db.QueryContext(ctx, query, profileID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]CounterpartyBalance, 0)
	for rows.Next() {
		var b CounterpartyBalance
		if err := rows.Scan(&b.ProfileID, &b.Name, &b.Picture, &b.Amount); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}

	return balances, rows.Err()
}

func (r *repository) RecentExpenses(ctx context.Context, profileID int64, limit int) ([]RecentExpense, error) {
	query := `
        SELECT i.item_id, i.item_name, i.item_total_cost, g.group_name, i.date_created
        FROM expense_item i
        INNER JOIN expense_list l ON i.list_id = l.list_id
        INNER JOIN household_group g ON l.group_id = g.group_id
        WHERE i.paid_by_id = $1 AND NOT i.is_deleted
        ORDER BY i.date_created DESC
        LIMIT $2
    `

	rows, err := r.db.QueryContext(ctx, query, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]RecentExpense, 0)
	for rows.Next() {
		var e RecentExpense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.GroupName, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// Statistics sums what the profile paid, bucketed by week for the requested
// window and by month for the last six months. Empty buckets are omitted.
func (r *repository) Statistics(ctx context.Context, profileID int64, groupID *int64, weeks int) (*Stats, error) {
	stats := &Stats{
		TotalSpent: decimal.Zero,
		Weekly:     make([]WeeklyBucket, 0),
		Monthly:    make([]MonthlyBucket, 0),
	}

	totalQuery := `
        SELECT COALESCE(SUM(i.item_total_cost), 0)
        FROM expense_item i
        INNER JOIN expense_list l ON i.list_id = l.list_id
        WHERE i.paid_by_id = $1 AND NOT i.is_deleted
          AND ($2::BIGINT IS NULL OR l.group_id = $2)
    `
	if err := r.db.QueryRowContext(ctx, totalQuery, profileID, groupID).Scan(&stats.TotalSpent); err != nil {
		return nil, err
	}

	weeklyQuery := `
        SELECT date_trunc('week', i.date_created) AS week_start, SUM(i.item_total_cost) AS total
        FROM expense_item i
        INNER JOIN expense_list l ON i.list_id = l.list_id
        WHERE i.paid_by_id = $1 AND NOT i.is_deleted
          AND ($2::BIGINT IS NULL OR l.group_id = $2)
          AND i.date_created >= date_trunc('week', CURRENT_TIMESTAMP) - make_interval(weeks => $3 - 1)
        GROUP BY week_start
        ORDER BY week_start ASC
    `
	rows, err := r.db.QueryContext(ctx, weeklyQuery, profileID, groupID, weeks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b WeeklyBucket
		if err := rows.Scan(&b.WeekStart, &b.Total); err != nil {
			return nil, err
		}
		stats.Weekly = append(stats.Weekly, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	monthlyQuery := `
        SELECT date_trunc('month', i.date_created) AS month_start, SUM(i.item_total_cost) AS total
        FROM expense_item i
        INNER JOIN expense_list l ON i.list_id = l.list_id
        WHERE i.paid_by_id = $1 AND NOT i.is_deleted
          AND ($2::BIGINT IS NULL OR l.group_id = $2)
          AND i.date_created >= date_trunc('month', CURRENT_TIMESTAMP) - INTERVAL '5 months'
        GROUP BY month_start
        ORDER BY month_start ASC
    `
	monthRows, err := r.db.QueryContext(ctx, monthlyQuery, profileID, groupID)
	if err != nil {
		return nil, err
	}
	defer monthRows.Close()

	for monthRows.Next() {
		var b MonthlyBucket
		if err := monthRows.Scan(&b.MonthStart, &b.Total); err != nil {
			return nil, err
		}
		stats.Monthly = append(stats.Monthly, b)
	}

	return stats, monthRows.Err()
}
