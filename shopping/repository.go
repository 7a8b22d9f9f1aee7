package shopping

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homebase-app/homebase/database"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) CreateList(ctx context.Context, groupID int64, name string) (*List, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	list := &List{Name: name, GroupID: groupID}

	query := `
        INSERT INTO shopping_list (list_name, group_id)
        VALUES ($1, $2)
        RETURNING list_id, date_created
    `
	err := r.db.QueryRowContext(ctx, query, name, groupID).Scan(&list.ID, &list.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("inserting shopping list: %w", err)
	}

	return list, nil
}

func (r *repository) ListsForGroup(ctx context.Context, groupID int64) ([]List, error) {
	query := `
        SELECT list_id, list_name, group_id, date_created, date_closed
        FROM shopping_list
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

func (r *repository) AddItem(ctx context.Context, listID int64, name string, quantity int, addedBy int64) (*Item, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if quantity < 1 {
		return nil, ErrBadQuantity
	}

	item := &Item{Name: name, ListID: listID, Quantity: quantity, AddedBy: addedBy}

	query := `
        INSERT INTO list_item (item_name, list_id, item_quantity, added_by)
        VALUES ($1, $2, $3, $4)
        RETURNING item_id, date_added
    `
	err := r.db.QueryRowContext(ctx, query, name, listID, quantity, addedBy).Scan(&item.ID, &item.AddedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("inserting list item: %w", err)
	}

	return item, nil
}

func (r *repository) ItemsForList(ctx context.Context, listID int64) ([]Item, error) {
	query := `
        SELECT item_id, item_name, list_id, item_quantity, added_by, date_added, bought
        FROM list_item
        WHERE list_id = $1
        ORDER BY date_added ASC
    `

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.Name, &i.ListID, &i.Quantity, &i.AddedBy, &i.AddedAt, &i.Bought); err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	return items, rows.Err()
}

func (r *repository) SetBought(ctx context.Context, itemID int64, bought bool) (*Item, error) {
	query := `
        UPDATE list_item
        SET bought = $2
        WHERE item_id = $1
        RETURNING item_id, item_name, list_id, item_quantity, added_by, date_added, bought
    `

	var i Item
	err := r.db.QueryRowContext(ctx, query, itemID, bought).Scan(
		&i.ID, &i.Name, &i.ListID, &i.Quantity, &i.AddedBy, &i.AddedAt, &i.Bought,
	)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	return &i, nil
}

func (r *repository) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM list_item WHERE item_id = $1`, itemID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
