package shopping

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyName    = errors.New("name can't be empty")
	ErrBadQuantity  = errors.New("quantity must be positive")
	ErrListNotFound = errors.New("shopping list not found")
	ErrItemNotFound = errors.New("list item not found")
)

type List struct {
	ID        int64      `json:"list_id"`
	Name      string     `json:"list_name"`
	GroupID   int64      `json:"group_id"`
	CreatedAt time.Time  `json:"date_created"`
	ClosedAt  *time.Time `json:"date_closed"`
}

type Item struct {
	ID       int64     `json:"item_id"`
	Name     string    `json:"item_name"`
	ListID   int64     `json:"list_id"`
	Quantity int       `json:"item_quantity"`
	AddedBy  int64     `json:"added_by"`
	AddedAt  time.Time `json:"date_added"`
	Bought   bool      `json:"bought"`
}

type Repository interface {
	CreateList(ctx context.Context, groupID int64, name string) (*List, error)
	ListsForGroup(ctx context.Context, groupID int64) ([]List, error)
	AddItem(ctx context.Context, listID int64, name string, quantity int, addedBy int64) (*Item, error)
	ItemsForList(ctx context.Context, listID int64) ([]Item, error)
	SetBought(ctx context.Context, itemID int64, bought bool) (*Item, error)
	DeleteItem(ctx context.Context, itemID int64) (bool, error)
}
