package browser

import (
	"context"
	"strings"

	"github.com/livetv/livetv/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// AllCategories is the filter value that disables category filtering.
const AllCategories = ""

type CatalogReader interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)
}

// State is the public view state for one page load. The visible list is
// derived again whenever the lists, the category filter or the search change.
type State struct {
	Categories       []models.Category
	Channels         []models.Channel
	SelectedCategory string
	Search           string
	NowPlaying       *models.Channel
	Loading          bool
	Err              error

	visible []models.Channel
}

func NewState() *State {
	return &State{Loading: true}
}

// Load fetches categories and channels concurrently. The first failure wins
// and neither list is kept. A nil store is a construction failure and no call
// is attempted.
func (s *State) Load(ctx context.Context, store CatalogReader) error {
	defer func() { s.Loading = false }()

	if store == nil {
		s.Err = models.ErrStoreUnavailable
		return s.Err
	}

	var categories []models.Category
	var channels []models.Channel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = store.ListCategories(gctx)
		if err != nil {
			return &models.FetchError{Entity: "categories", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		channels, err = store.ListChannels(gctx)
		if err != nil {
			return &models.FetchError{Entity: "channels", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.Err = err
		return err
	}

	s.Categories = categories
	s.Channels = channels
	s.SelectedCategory = AllCategories
	if len(categories) > 0 {
		s.SelectedCategory = categories[0].ID
	}
	s.derive()
	return nil
}

func (s *State) SetCategory(id string) {
	s.SelectedCategory = id
	s.derive()
}

func (s *State) SetSearch(q string) {
	s.Search = q
	s.derive()
}

// Visible returns the filtered channels in store order.
func (s *State) Visible() []models.Channel {
	return s.visible
}

// Select makes channel the only one playing.
func (s *State) Select(channel models.Channel) {
	s.NowPlaying = &channel
}

// SelectByID plays the channel with the given id from the full list, so a
// channel keeps playing when the filter hides it.
func (s *State) SelectByID(id string) bool {
	for _, ch := range s.Channels {
		if ch.ID == id {
			s.Select(ch)
			return true
		}
	}
	return false
}

func (s *State) derive() {
	s.visible = FilterChannels(s.Channels, s.SelectedCategory, s.Search)
}

// FilterChannels keeps channels of categoryID (unless it is AllCategories)
// whose name contains search, compared with Unicode case folding. Order is
// preserved.
func FilterChannels(channels []models.Channel, categoryID, search string) []models.Channel {
	fold := cases.Fold()
	needle := fold.String(search)

	out := make([]models.Channel, 0, len(channels))
	for _, ch := range channels {
		if categoryID != AllCategories && ch.CategoryID != categoryID {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(ch.Name), needle) {
			continue
		}
		out = append(out, ch)
	}
	return out
}
