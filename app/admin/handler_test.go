package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/livetv/livetv/app/player"
	"github.com/livetv/livetv/app/web"
	"github.com/livetv/livetv/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = player.Policy{AllowedHosts: []string{"player.example"}}

// --- Mocks ---

type MockRenderer struct {
	Name   string
	Status int
	Data   any
}

func (m *MockRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	m.Name = name
	m.Status = status
	m.Data = data
	w.WriteHeader(status)
	return nil
}

// failingStore wraps the in-memory catalog and fails selected calls.
type failingStore struct {
	*models.MemoryRepository
	listErr  error
	writeErr error
}

func (f *failingStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryRepository.ListChannels(ctx)
}

func (f *failingStore) CreateChannel(ctx context.Context, channel *models.Channel) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryRepository.CreateChannel(ctx, channel)
}

// --- Harness ---

type harness struct {
	t        *testing.T
	mux      *http.ServeMux
	renderer *MockRenderer
	cookie   *http.Cookie
}

func newHarness(t *testing.T, store CatalogStore) *harness {
	t.Helper()
	gate := NewGate(hashPassword(t, "admin123"), time.Hour)
	renderer := &MockRenderer{}
	handler := NewAdminHandler(gate, store, NewFormValidator(testPolicy), renderer, zerolog.Nop())

	mux := http.NewServeMux()
	handler.Register(mux)
	return &harness{t: t, mux: mux, renderer: renderer}
}

func (h *harness) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login() {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/admin/login", url.Values{"password": {"admin123"}})
	require.Equal(h.t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			h.cookie = c
		}
	}
	require.NotNil(h.t, h.cookie)
}

// view loads the panel and returns the rendered admin page.
func (h *harness) view() AdminPage {
	h.t.Helper()
	rec := h.do(http.MethodGet, "/admin", nil)
	require.Equal(h.t, http.StatusOK, rec.Code)
	require.Equal(h.t, "admin.html", h.renderer.Name)
	return h.renderer.Data.(AdminPage)
}

func seedCatalog(t *testing.T) (*models.MemoryRepository, *models.Category, *models.Category) {
	t.Helper()
	repo, err := models.NewMemoryRepository()
	require.NoError(t, err)
	ctx := context.Background()
	news := &models.Category{Name: "News"}
	sports := &models.Category{Name: "Sports"}
	require.NoError(t, repo.CreateCategory(ctx, news))
	require.NoError(t, repo.CreateCategory(ctx, sports))
	require.NoError(t, repo.CreateChannel(ctx, &models.Channel{Name: "BBC", EmbedURL: "https://player.example/bbc", CategoryID: news.ID}))
	require.NoError(t, repo.CreateChannel(ctx, &models.Channel{Name: "ESPN", EmbedURL: "https://player.example/espn", CategoryID: sports.ID}))
	return repo, news, sports
}

func texts(notices []web.Notice) []string {
	out := make([]string, len(notices))
	for i, n := range notices {
		out[i] = n.Text
	}
	return out
}

// --- Tests ---

func TestHandleLogin(t *testing.T) {
	repo, _, _ := seedCatalog(t)

	tests := []struct {
		name       string
		password   string
		wantStatus int
		wantCookie bool
	}{
		{name: "wrong password", password: "wrong", wantStatus: http.StatusUnauthorized},
		{name: "empty password", password: "", wantStatus: http.StatusUnauthorized},
		{name: "correct password", password: "admin123", wantStatus: http.StatusSeeOther, wantCookie: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := newHarness(t, repo)

			// Act
			rec := h.do(http.MethodPost, "/admin/login", url.Values{"password": {tt.password}})

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			var session *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == SessionCookie {
					session = c
				}
			}
			if !tt.wantCookie {
				assert.Nil(t, session)
				assert.Equal(t, "login.html", h.renderer.Name)
				assert.Equal(t, []string{"Invalid password"}, texts(h.renderer.Data.(LoginPage).Notices))
				return
			}
			require.NotNil(t, session)
			assert.True(t, session.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
			assert.Equal(t, "/admin", rec.Header().Get("Location"))
		})
	}
}

func TestLoginThenPanel(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	h := newHarness(t, repo)

	rec := h.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login.html", h.renderer.Name, "anonymous visitors see the login form")

	h.login()
	page := h.view()

	assert.Equal(t, []string{"Logged in successfully"}, texts(page.Notices))
	require.Len(t, page.Categories, 2)
	assert.Equal(t, CategoryRow{ID: news.ID, Name: "News", ChannelCount: 1}, page.Categories[0])
	require.Len(t, page.Channels, 2)
	assert.Equal(t, "BBC", page.Channels[0].Name)
	assert.Equal(t, "News", page.Channels[0].CategoryName)
	assert.Nil(t, page.ChannelDialog)
	assert.Nil(t, page.CategoryDialog)

	assert.Empty(t, h.view().Notices, "notices are shown once")
}

func TestAnonymousWritesAreRedirected(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	h := newHarness(t, repo)

	rec := h.do(http.MethodPost, "/admin/channels", url.Values{
		"name": {"CNN"}, "embed_url": {"https://player.example/cnn"}, "category_id": {news.ID},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	channels, err := repo.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Len(t, channels, 2)
}

func TestCreateChannel(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	h.view()

	rec := h.do(http.MethodPost, "/admin/channels/new", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	page := h.view()
	require.NotNil(t, page.ChannelDialog)
	assert.Equal(t, "Add Channel", page.ChannelDialog.Title)
	assert.Len(t, page.ChannelDialog.Categories, 2)

	rec = h.do(http.MethodPost, "/admin/channels", url.Values{
		"name": {" CNN "}, "embed_url": {"https://player.example/cnn"}, "category_id": {news.ID},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page = h.view()
	assert.Equal(t, []string{"Channel created successfully"}, texts(page.Notices))
	assert.Nil(t, page.ChannelDialog)
	assert.Equal(t, []string{"BBC", "CNN", "ESPN"}, []string{page.Channels[0].Name, page.Channels[1].Name, page.Channels[2].Name})
	assert.Equal(t, 2, page.Categories[0].ChannelCount)
}

func TestCreateChannelValidation(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	h.do(http.MethodPost, "/admin/channels/new", url.Values{})

	h.do(http.MethodPost, "/admin/channels", url.Values{
		"name": {"   "}, "embed_url": {"https://player.example/cnn"}, "category_id": {news.ID},
	})

	page := h.view()
	assert.Equal(t, []string{"Please fill in all required fields"}, texts(page.Notices))
	require.NotNil(t, page.ChannelDialog, "editor stays open")
	assert.Equal(t, "https://player.example/cnn", page.ChannelDialog.Form.EmbedURL)
	assert.Len(t, page.Channels, 2, "store was not written")
}

func TestCreateChannelStoreFailure(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	store := &failingStore{MemoryRepository: repo, writeErr: &models.StoreError{Op: "create channel", Message: "permission denied"}}
	h := newHarness(t, store)
	h.login()
	h.do(http.MethodPost, "/admin/channels/new", url.Values{})

	h.do(http.MethodPost, "/admin/channels", url.Values{
		"name": {"CNN"}, "embed_url": {"https://player.example/cnn"}, "category_id": {news.ID},
	})

	page := h.view()
	assert.Equal(t, []string{"Failed to save channel: permission denied"}, texts(page.Notices))
	require.NotNil(t, page.ChannelDialog)
	assert.Equal(t, "CNN", page.ChannelDialog.Form.Name)
}

func TestEditChannel(t *testing.T) {
	repo, news, sports := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	page := h.view()
	bbc := page.Channels[0]

	h.do(http.MethodPost, "/admin/channels/"+bbc.ID+"/edit", url.Values{})
	page = h.view()
	require.NotNil(t, page.ChannelDialog)
	assert.Equal(t, "Edit Channel", page.ChannelDialog.Title)
	assert.Equal(t, ChannelForm{Name: "BBC", EmbedURL: "https://player.example/bbc", CategoryID: news.ID}, page.ChannelDialog.Form)

	h.do(http.MethodPost, "/admin/channels", url.Values{
		"name": {"BBC World"}, "embed_url": {"https://player.example/bbc"}, "category_id": {sports.ID},
	})

	page = h.view()
	assert.Equal(t, []string{"Channel updated successfully"}, texts(page.Notices))
	assert.Equal(t, "BBC World", page.Channels[0].Name)
	assert.Equal(t, "Sports", page.Channels[0].CategoryName)
}

func TestCancelChannelEditor(t *testing.T) {
	repo, _, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	page := h.view()

	h.do(http.MethodPost, "/admin/channels/"+page.Channels[0].ID+"/edit", url.Values{})
	h.do(http.MethodPost, "/admin/channels/cancel", url.Values{})

	page = h.view()
	assert.Nil(t, page.ChannelDialog)
	assert.Equal(t, "BBC", page.Channels[0].Name)
}

func TestDeleteCategoryNeedsConfirmation(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	h.view()

	rec := h.do(http.MethodPost, "/admin/categories/"+news.ID+"/delete", url.Values{})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "confirm.html", h.renderer.Name)
	confirm := h.renderer.Data.(ConfirmPage)
	assert.Contains(t, confirm.Message, "All channels in this category will also be deleted")
	assert.Equal(t, "/admin/categories/"+news.ID+"/delete", confirm.Action)

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2, "nothing deleted before confirming")

	rec = h.do(http.MethodPost, "/admin/categories/"+news.ID+"/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	page := h.view()
	assert.Equal(t, []string{"Category deleted successfully"}, texts(page.Notices))
	require.Len(t, page.Categories, 1)
	assert.Equal(t, "Sports", page.Categories[0].Name)
	require.Len(t, page.Channels, 1)
	assert.Equal(t, "ESPN", page.Channels[0].Name)
}

func TestDeleteChannel(t *testing.T) {
	repo, _, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	page := h.view()

	h.do(http.MethodPost, "/admin/channels/"+page.Channels[0].ID+"/delete", url.Values{})
	assert.Equal(t, "Are you sure you want to delete this channel?", h.renderer.Data.(ConfirmPage).Message)

	h.do(http.MethodPost, "/admin/channels/"+page.Channels[0].ID+"/delete", url.Values{"confirm": {"yes"}})
	page = h.view()
	assert.Equal(t, []string{"Channel deleted successfully"}, texts(page.Notices))
	assert.Len(t, page.Channels, 1)
	assert.Equal(t, 0, page.Categories[0].ChannelCount)
}

func TestCategoryEditor(t *testing.T) {
	repo, news, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()
	h.view()

	h.do(http.MethodPost, "/admin/categories/new", url.Values{})
	h.do(http.MethodPost, "/admin/categories", url.Values{"name": {""}})
	page := h.view()
	assert.Equal(t, []string{"Please enter a category name"}, texts(page.Notices))
	require.NotNil(t, page.CategoryDialog)

	h.do(http.MethodPost, "/admin/categories", url.Values{"name": {"Kids"}})
	page = h.view()
	assert.Equal(t, []string{"Category created successfully"}, texts(page.Notices))
	assert.Equal(t, "Kids", page.Categories[0].Name)

	h.do(http.MethodPost, "/admin/categories/"+news.ID+"/edit", url.Values{})
	page = h.view()
	require.NotNil(t, page.CategoryDialog)
	assert.Equal(t, "Edit Category", page.CategoryDialog.Title)
	assert.Equal(t, "News", page.CategoryDialog.Form.Name)

	h.do(http.MethodPost, "/admin/categories", url.Values{"name": {"World News"}})
	page = h.view()
	assert.Equal(t, []string{"Category updated successfully"}, texts(page.Notices))
	assert.Equal(t, "World News", page.Channels[0].CategoryName, "rename refetches joined names")
}

func TestPanelFetchFailure(t *testing.T) {
	repo, _, _ := seedCatalog(t)
	store := &failingStore{MemoryRepository: repo, listErr: &models.StoreError{Op: "list channels", Message: "permission denied"}}
	h := newHarness(t, store)
	h.login()

	rec := h.do(http.MethodGet, "/admin", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "error.html", h.renderer.Name)
	page := h.renderer.Data.(web.ConfigErrorPage)
	assert.Equal(t, "Failed to fetch channels: permission denied", page.Message)
	assert.True(t, page.BackLink)

	store.listErr = nil
	assert.Len(t, h.view().Channels, 2, "the next visit starts over")
}

func TestPanelWithoutStore(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	rec := h.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "error.html", h.renderer.Name)
	assert.Equal(t, web.ConfigErrorMessage(models.ErrStoreUnavailable), h.renderer.Data.(web.ConfigErrorPage).Message)

	rec = h.do(http.MethodPost, "/admin/categories", url.Values{"name": {"News"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code, "writes fail softly without a store")
}

func TestLogout(t *testing.T) {
	repo, _, _ := seedCatalog(t)
	h := newHarness(t, repo)
	h.login()

	rec := h.do(http.MethodPost, "/admin/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	h.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, "login.html", h.renderer.Name, "old token no longer works")
}

func TestAdminTemplatesRender(t *testing.T) {
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	categories := []models.Category{{ID: "c1", Name: "News"}}

	tests := []struct {
		name     string
		page     string
		data     any
		contains []string
	}{
		{
			name:     "login",
			page:     "login.html",
			data:     LoginPage{Notices: []web.Notice{web.Failure("Invalid password")}},
			contains: []string{`type="password"`, "Invalid password"},
		},
		{
			name: "panel with open editors",
			page: "admin.html",
			data: AdminPage{
				Notices:        []web.Notice{web.Success("Channel created successfully")},
				Categories:     []CategoryRow{{ID: "c1", Name: "News", ChannelCount: 3}},
				Channels:       []ChannelRow{{ID: "ch1", Name: "BBC", EmbedURL: "https://player.example/bbc", CategoryName: "News"}},
				ChannelDialog:  &ChannelDialog{Title: "Edit Channel", Submit: "Update", Form: ChannelForm{Name: "BBC", CategoryID: "c1"}, Categories: categories},
				CategoryDialog: &CategoryDialog{Title: "Add Category", Submit: "Create"},
			},
			contains: []string{
				"Channel created successfully",
				"3 channels",
				`href="https://player.example/bbc"`,
				`action="/admin/channels/ch1/delete"`,
				"Edit Channel",
				`<option value="c1" selected>`,
				"View Site",
				"Logout",
			},
		},
		{
			name:     "confirm",
			page:     "confirm.html",
			data:     ConfirmPage{Message: "Are you sure you want to delete this channel?", Action: "/admin/channels/ch1/delete"},
			contains: []string{"Are you sure", `name="confirm" value="yes"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			err := renderer.Render(rec, http.StatusOK, tt.page, tt.data)

			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}
