package browser

import (
	"net/http"
	"net/url"

	"github.com/livetv/livetv/app/player"
	"github.com/livetv/livetv/app/web"
	"github.com/livetv/livetv/models"
	"github.com/rs/zerolog"
)

type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

type IndexPage struct {
	Categories       []models.Category
	SelectedCategory string
	Search           string
	Channels         []ChannelCard
	Player           *Player
}

type ChannelCard struct {
	ID      string
	Name    string
	LogoURL string
	PlayURL string
	Playing bool
}

// Player is nil until a channel is selected; the template then shows the
// inert placeholder.
type Player struct {
	ID       string
	Name     string
	EmbedURL string
	Sandbox  string
	Playable bool
}

type BrowserHandler struct {
	store    CatalogReader
	renderer Renderer
	policy   player.Policy
	log      zerolog.Logger
}

func NewBrowserHandler(store CatalogReader, renderer Renderer, policy player.Policy, log zerolog.Logger) *BrowserHandler {
	return &BrowserHandler{
		store:    store,
		renderer: renderer,
		policy:   policy,
		log:      log,
	}
}

func (h *BrowserHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	state := NewState()
	if err := state.Load(r.Context(), h.store); err != nil {
		h.log.Error().Err(err).Msg("load catalog")
		h.render(w, http.StatusServiceUnavailable, "error.html", web.ConfigErrorPage{
			Message: web.ConfigErrorMessage(err),
		})
		return
	}

	// category present but empty selects all categories
	query := r.URL.Query()
	if query.Has("category") {
		state.SetCategory(query.Get("category"))
	}
	state.SetSearch(query.Get("q"))
	if id := query.Get("play"); id != "" {
		state.SelectByID(id)
	}

	h.render(w, http.StatusOK, "index.html", h.page(state))
}

func (h *BrowserHandler) page(state *State) IndexPage {
	page := IndexPage{
		Categories:       state.Categories,
		SelectedCategory: state.SelectedCategory,
		Search:           state.Search,
	}

	var playingID string
	if ch := state.NowPlaying; ch != nil {
		playingID = ch.ID
		page.Player = &Player{
			ID:       ch.ID,
			Name:     ch.Name,
			EmbedURL: ch.EmbedURL,
			Sandbox:  player.Sandbox,
			Playable: h.policy.Allowed(ch.EmbedURL),
		}
		if !page.Player.Playable {
			h.log.Warn().Str("channel", ch.ID).Msg("embed link rejected by policy")
		}
	}

	visible := state.Visible()
	page.Channels = make([]ChannelCard, len(visible))
	for i, ch := range visible {
		page.Channels[i] = ChannelCard{
			ID:      ch.ID,
			Name:    ch.Name,
			LogoURL: ch.LogoURL,
			PlayURL: playURL(state, ch.ID),
			Playing: ch.ID == playingID,
		}
	}
	return page
}

func playURL(state *State, channelID string) string {
	v := url.Values{}
	v.Set("category", state.SelectedCategory)
	if state.Search != "" {
		v.Set("q", state.Search)
	}
	v.Set("play", channelID)
	return "/?" + v.Encode()
}

func (h *BrowserHandler) render(w http.ResponseWriter, status int, name string, data any) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.log.Error().Err(err).Str("page", name).Msg("render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}
