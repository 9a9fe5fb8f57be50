package models

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository reads and writes categories and channels through gorm.
// It works against postgres and sqlite alike.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{
		db: db,
	}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Find(&categories).Error; err != nil {
		return nil, storeError("list categories", err)
	}
	return categories, nil
}

// ListChannels returns every channel joined with its category name.
// A channel whose category is gone is still returned, with a nil Category.
func (r *CatalogRepository) ListChannels(ctx context.Context) ([]Channel, error) {
	channels := []Channel{}
	if err := r.db.WithContext(ctx).
		Joins("Category").
		Order("channels.name ASC").
		Order("channels.id ASC").
		Find(&channels).Error; err != nil {
		return nil, storeError("list channels", err)
	}
	for i := range channels {
		if channels[i].Category != nil && channels[i].Category.ID == "" {
			channels[i].Category = nil
		}
	}
	return channels, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, category *Category) error {
	return storeError("create category", r.db.WithContext(ctx).Create(category).Error)
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, id string, category *Category) error {
	res := r.db.WithContext(ctx).
		Model(&Category{}).
		Where("id = ?", id).
		Update("name", category.Name)
	if res.Error != nil {
		return storeError("update category", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeError("update category", ErrNotFound)
	}
	category.ID = id
	return nil
}

// DeleteCategory removes the category. Dependent channels are removed by the
// store through the foreign key cascade.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	return storeError("delete category", r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Category{}).Error)
}

func (r *CatalogRepository) CreateChannel(ctx context.Context, channel *Channel) error {
	return storeError("create channel", r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(channel).Error)
}

func (r *CatalogRepository) UpdateChannel(ctx context.Context, id string, channel *Channel) error {
	res := r.db.WithContext(ctx).
		Model(&Channel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":        channel.Name,
			"logo_url":    channel.LogoURL,
			"embed_link":  channel.EmbedURL,
			"category_id": channel.CategoryID,
		})
	if res.Error != nil {
		return storeError("update channel", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeError("update channel", ErrNotFound)
	}
	channel.ID = id
	return nil
}

func (r *CatalogRepository) DeleteChannel(ctx context.Context, id string) error {
	return storeError("delete channel", r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Channel{}).Error)
}
