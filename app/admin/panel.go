package admin

import (
	"context"

	"github.com/livetv/livetv/models"
	"golang.org/x/sync/errgroup"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id string, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CreateChannel(ctx context.Context, channel *models.Channel) error
	UpdateChannel(ctx context.Context, id string, channel *models.Channel) error
	DeleteChannel(ctx context.Context, id string) error
}

// Panel is the admin state of one session: both lists plus the two editors.
// Channel writes refetch channels; category writes refetch both lists since
// a category delete cascades and a rename changes joined names.
type Panel struct {
	Categories []models.Category
	Channels   []models.Channel
	Loaded     bool
	Err        error

	Channel  *Editor[ChannelForm]
	Category *Editor[CategoryForm]

	store CatalogStore
}

func NewPanel(store CatalogStore, forms *FormValidator) *Panel {
	p := &Panel{store: store}
	p.Channel = NewEditor[ChannelForm](channelBackend{store: store}, forms.Channel, p.RefreshChannels)
	p.Category = NewEditor[CategoryForm](categoryBackend{store: store}, forms.Category, p.Refresh)
	return p
}

// Refresh fetches both lists concurrently; the first failure wins and the
// previous lists are kept out of view by Err.
func (p *Panel) Refresh(ctx context.Context) error {
	if p.store == nil {
		p.Err = models.ErrStoreUnavailable
		return p.Err
	}

	var categories []models.Category
	var channels []models.Channel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = p.store.ListCategories(gctx)
		if err != nil {
			return &models.FetchError{Entity: "categories", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		channels, err = p.store.ListChannels(gctx)
		if err != nil {
			return &models.FetchError{Entity: "channels", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		p.Err = err
		return err
	}

	p.Categories = categories
	p.Channels = channels
	p.Loaded = true
	p.Err = nil
	return nil
}

func (p *Panel) RefreshChannels(ctx context.Context) error {
	if p.store == nil {
		p.Err = models.ErrStoreUnavailable
		return p.Err
	}
	channels, err := p.store.ListChannels(ctx)
	if err != nil {
		p.Err = &models.FetchError{Entity: "channels", Err: err}
		return p.Err
	}
	p.Channels = channels
	return nil
}

// EditChannel opens the channel editor on the listed record with id.
func (p *Panel) EditChannel(id string) bool {
	for _, ch := range p.Channels {
		if ch.ID == id {
			p.Channel.OpenEdit(id, ChannelFormFrom(ch))
			return true
		}
	}
	return false
}

func (p *Panel) EditCategory(id string) bool {
	for _, c := range p.Categories {
		if c.ID == id {
			p.Category.OpenEdit(id, CategoryFormFrom(c))
			return true
		}
	}
	return false
}

// ChannelCount is the number of loaded channels in categoryID.
func (p *Panel) ChannelCount(categoryID string) int {
	n := 0
	for _, ch := range p.Channels {
		if ch.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (p *Panel) CategoryName(id string) string {
	for _, c := range p.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

var errStoreMissing = &models.StoreError{
	Op:      "write",
	Message: "Database not configured",
	Err:     models.ErrStoreUnavailable,
}

type channelBackend struct {
	store CatalogStore
}

func (b channelBackend) Create(ctx context.Context, form ChannelForm) error {
	if b.store == nil {
		return errStoreMissing
	}
	return b.store.CreateChannel(ctx, form.Channel())
}

func (b channelBackend) Update(ctx context.Context, id string, form ChannelForm) error {
	if b.store == nil {
		return errStoreMissing
	}
	return b.store.UpdateChannel(ctx, id, form.Channel())
}

func (b channelBackend) Delete(ctx context.Context, id string) error {
	if b.store == nil {
		return errStoreMissing
	}
	return b.store.DeleteChannel(ctx, id)
}

type categoryBackend struct {
	store CatalogStore
}

func (b categoryBackend) Create(ctx context.Context, form CategoryForm) error {
	if b.store == nil {
		return errStoreMissing
	}
	return b.store.CreateCategory(ctx, form.Category())
}

func (b categoryBackend) Update(ctx context.Context, id string, form CategoryForm) error {
	if b.store == nil {
		return errStoreMissing
	}
	return b.store.UpdateCategory(ctx, id, form.Category())
}

func (b categoryBackend) Delete(ctx context.Context, id string) error {
	if b.store == nil {
		return errStoreMissing
	}
	return b.store.DeleteCategory(ctx, id)
}
