package models

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

const (
	categoriesTable = "categories"
	channelsTable   = "channels"
)

// MemoryRepository keeps the catalog in a go-memdb database.
// It mirrors the relational store: sorted reads, joined category names and
// the category -> channels delete cascade.
type MemoryRepository struct {
	db *memdb.MemDB
}

func catalogSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			categoriesTable: {
				Name: categoriesTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			channelsTable: {
				Name: channelsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"category_id": {
						Name:         "category_id",
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "CategoryID"},
					},
				},
			},
		},
	}
}

func NewMemoryRepository() (*MemoryRepository, error) {
	db, err := memdb.NewMemDB(catalogSchema())
	if err != nil {
		return nil, err
	}
	return &MemoryRepository{db: db}, nil
}

func (r *MemoryRepository) ListCategories(ctx context.Context) ([]Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("list categories", err)
	}
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(categoriesTable, "id")
	if err != nil {
		return nil, storeError("list categories", err)
	}
	categories := []Category{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		categories = append(categories, *raw.(*Category))
	}
	slices.SortStableFunc(categories, func(a, b Category) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return categories, nil
}

func (r *MemoryRepository) ListChannels(ctx context.Context) ([]Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("list channels", err)
	}
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(channelsTable, "id")
	if err != nil {
		return nil, storeError("list channels", err)
	}
	channels := []Channel{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		channel := *raw.(*Channel)
		channel.Category = nil
		if channel.CategoryID != "" {
			cat, err := txn.First(categoriesTable, "id", channel.CategoryID)
			if err != nil {
				return nil, storeError("list channels", err)
			}
			if cat != nil {
				joined := *cat.(*Category)
				channel.Category = &joined
			}
		}
		channels = append(channels, channel)
	}
	slices.SortStableFunc(channels, func(a, b Channel) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return channels, nil
}

func (r *MemoryRepository) CreateCategory(ctx context.Context, category *Category) error {
	if err := ctx.Err(); err != nil {
		return storeError("create category", err)
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(categoriesTable, "id", category.ID)
	if err != nil {
		return storeError("create category", err)
	}
	if existing != nil {
		return &StoreError{Op: "create category", Message: "record already exists"}
	}
	stored := *category
	if err := txn.Insert(categoriesTable, &stored); err != nil {
		return storeError("create category", err)
	}
	txn.Commit()
	return nil
}

func (r *MemoryRepository) UpdateCategory(ctx context.Context, id string, category *Category) error {
	if err := ctx.Err(); err != nil {
		return storeError("update category", err)
	}
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(categoriesTable, "id", id)
	if err != nil {
		return storeError("update category", err)
	}
	if existing == nil {
		return storeError("update category", ErrNotFound)
	}
	stored := Category{ID: id, Name: category.Name}
	if err := txn.Insert(categoriesTable, &stored); err != nil {
		return storeError("update category", err)
	}
	txn.Commit()
	category.ID = id
	return nil
}

func (r *MemoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return storeError("delete category", err)
	}
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(categoriesTable, "id", id)
	if err != nil {
		return storeError("delete category", err)
	}
	if existing == nil {
		return nil
	}
	if err := txn.Delete(categoriesTable, existing); err != nil {
		return storeError("delete category", err)
	}
	if _, err := txn.DeleteAll(channelsTable, "category_id", id); err != nil {
		return storeError("delete category", err)
	}
	txn.Commit()
	return nil
}

func (r *MemoryRepository) CreateChannel(ctx context.Context, channel *Channel) error {
	if err := ctx.Err(); err != nil {
		return storeError("create channel", err)
	}
	if channel.ID == "" {
		channel.ID = uuid.NewString()
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(channelsTable, "id", channel.ID)
	if err != nil {
		return storeError("create channel", err)
	}
	if existing != nil {
		return &StoreError{Op: "create channel", Message: "record already exists"}
	}
	if err := r.insertChannel(txn, "create channel", *channel); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *MemoryRepository) UpdateChannel(ctx context.Context, id string, channel *Channel) error {
	if err := ctx.Err(); err != nil {
		return storeError("update channel", err)
	}
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(channelsTable, "id", id)
	if err != nil {
		return storeError("update channel", err)
	}
	if existing == nil {
		return storeError("update channel", ErrNotFound)
	}
	stored := *channel
	stored.ID = id
	if err := r.insertChannel(txn, "update channel", stored); err != nil {
		return err
	}
	txn.Commit()
	channel.ID = id
	return nil
}

func (r *MemoryRepository) DeleteChannel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return storeError("delete channel", err)
	}
	txn := r.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(channelsTable, "id", id); err != nil {
		return storeError("delete channel", err)
	}
	txn.Commit()
	return nil
}

// insertChannel enforces the category reference the way a foreign key would.
func (r *MemoryRepository) insertChannel(txn *memdb.Txn, op string, channel Channel) error {
	cat, err := txn.First(categoriesTable, "id", channel.CategoryID)
	if err != nil {
		return storeError(op, err)
	}
	if cat == nil {
		return storeError(op, ErrCategoryMissing)
	}
	channel.Category = nil
	if err := txn.Insert(channelsTable, &channel); err != nil {
		return storeError(op, err)
	}
	return nil
}
