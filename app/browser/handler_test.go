package browser

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/livetv/livetv/app/player"
	"github.com/livetv/livetv/app/web"
	"github.com/livetv/livetv/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Renderer ---

type MockRenderer struct {
	Page   string
	Status int
	Data   any
}

func (m *MockRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	m.Page = name
	m.Status = status
	m.Data = data
	w.WriteHeader(status)
	return nil
}

func newNewsRepo() *MockCatalogRepo {
	return &MockCatalogRepo{
		Categories: []models.Category{
			{ID: "c1", Name: "News"},
			{ID: "c2", Name: "Sports"},
		},
		Channels: []models.Channel{
			newTestChannel("ch1", "BBC", "c1"),
			newTestChannel("ch2", "CNN", "c1"),
			newTestChannel("ch3", "ESPN", "c2"),
		},
	}
}

// --- Tests ---

func TestHandleIndex(t *testing.T) {
	testCases := []struct {
		name               string
		url                string
		repo               func() CatalogReader
		policy             player.Policy
		expectedStatusCode int
		checkPage          func(t *testing.T, r *MockRenderer)
	}{
		{
			name:               "Default selects first category and shows placeholder",
			url:                "/",
			repo:               func() CatalogReader { return newNewsRepo() },
			expectedStatusCode: http.StatusOK,
			checkPage: func(t *testing.T, r *MockRenderer) {
				page := r.Data.(IndexPage)
				assert.Equal(t, "index.html", r.Page)
				assert.Equal(t, "c1", page.SelectedCategory)
				assert.Len(t, page.Channels, 2)
				assert.Nil(t, page.Player)
			},
		},
		{
			name:               "Empty category selects all",
			url:                "/?category=",
			repo:               func() CatalogReader { return newNewsRepo() },
			expectedStatusCode: http.StatusOK,
			checkPage: func(t *testing.T, r *MockRenderer) {
				page := r.Data.(IndexPage)
				assert.Equal(t, AllCategories, page.SelectedCategory)
				assert.Len(t, page.Channels, 3)
			},
		},
		{
			name:               "Category and search",
			url:                "/?category=c1&q=bb",
			repo:               func() CatalogReader { return newNewsRepo() },
			expectedStatusCode: http.StatusOK,
			checkPage: func(t *testing.T, r *MockRenderer) {
				page := r.Data.(IndexPage)
				require.Len(t, page.Channels, 1)
				assert.Equal(t, "BBC", page.Channels[0].Name)
				assert.Equal(t, "/?category=c1&play=ch1&q=bb", page.Channels[0].PlayURL)
			},
		},
		{
			name:               "Play selects now playing",
			url:                "/?category=c1&play=ch2",
			repo:               func() CatalogReader { return newNewsRepo() },
			expectedStatusCode: http.StatusOK,
			checkPage: func(t *testing.T, r *MockRenderer) {
				page := r.Data.(IndexPage)
				require.NotNil(t, page.Player)
				assert.Equal(t, "CNN", page.Player.Name)
				assert.Equal(t, player.Sandbox, page.Player.Sandbox)
				assert.True(t, page.Player.Playable)
				assert.False(t, page.Channels[0].Playing)
				assert.True(t, page.Channels[1].Playing)
			},
		},
		{
			name:               "Blocked embed host is not playable",
			url:                "/?play=ch3",
			repo:               func() CatalogReader { return newNewsRepo() },
			policy:             player.Policy{AllowedHosts: []string{"youtube.com"}},
			expectedStatusCode: http.StatusOK,
			checkPage: func(t *testing.T, r *MockRenderer) {
				page := r.Data.(IndexPage)
				require.NotNil(t, page.Player)
				assert.False(t, page.Player.Playable)
			},
		},
		{
			name: "Category read failure shows error page",
			url:  "/",
			repo: func() CatalogReader {
				return &MockCatalogRepo{
					CategoriesErr: &models.StoreError{Message: "permission denied"},
					Channels:      newNewsRepo().Channels,
				}
			},
			expectedStatusCode: http.StatusServiceUnavailable,
			checkPage: func(t *testing.T, r *MockRenderer) {
				assert.Equal(t, "error.html", r.Page)
				page := r.Data.(web.ConfigErrorPage)
				assert.Equal(t, "Failed to fetch categories: permission denied", page.Message)
			},
		},
		{
			name: "Channel read failure shows error page",
			url:  "/",
			repo: func() CatalogReader {
				return &MockCatalogRepo{ChannelsErr: errors.New("boom")}
			},
			expectedStatusCode: http.StatusServiceUnavailable,
			checkPage: func(t *testing.T, r *MockRenderer) {
				assert.Equal(t, "error.html", r.Page)
			},
		},
		{
			name:               "Unconfigured store shows error page",
			url:                "/",
			repo:               func() CatalogReader { return nil },
			expectedStatusCode: http.StatusServiceUnavailable,
			checkPage: func(t *testing.T, r *MockRenderer) {
				page := r.Data.(web.ConfigErrorPage)
				assert.Contains(t, page.Message, "not configured")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			renderer := &MockRenderer{}
			handler := NewBrowserHandler(tc.repo(), renderer, tc.policy, zerolog.Nop())
			req := httptest.NewRequest("GET", tc.url, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleIndex(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkPage != nil {
				tc.checkPage(t, renderer)
			}
		})
	}
}

func TestHandleIndexRendersHTML(t *testing.T) {
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	handler := NewBrowserHandler(newNewsRepo(), renderer, player.Policy{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.HandleIndex(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select a channel to start watching")
	assert.NotContains(t, rec.Body.String(), "<iframe")

	rec = httptest.NewRecorder()
	handler.HandleIndex(rec, httptest.NewRequest("GET", "/?play=ch1", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "Now Playing: BBC")
	assert.Contains(t, body, `sandbox="allow-scripts allow-same-origin allow-presentation"`)
	assert.Contains(t, body, `src="https://player.example/ch1"`)
}
