package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/livetv/livetv/app/web"
	"github.com/livetv/livetv/models"
	"github.com/rs/zerolog"
)

type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

type LoginPage struct {
	Notices []web.Notice
}

type AdminPage struct {
	Notices        []web.Notice
	Categories     []CategoryRow
	Channels       []ChannelRow
	ChannelDialog  *ChannelDialog
	CategoryDialog *CategoryDialog
}

type CategoryRow struct {
	ID           string
	Name         string
	ChannelCount int
}

type ChannelRow struct {
	ID           string
	Name         string
	LogoURL      string
	EmbedURL     string
	CategoryName string
}

type ChannelDialog struct {
	Title      string
	Submit     string
	Form       ChannelForm
	Categories []models.Category
}

type CategoryDialog struct {
	Title  string
	Submit string
	Form   CategoryForm
}

type ConfirmPage struct {
	Message string
	Action  string
}

type AdminHandler struct {
	gate     *Gate
	store    CatalogStore
	forms    *FormValidator
	renderer Renderer
	log      zerolog.Logger

	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

func NewAdminHandler(gate *Gate, store CatalogStore, forms *FormValidator, renderer Renderer, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		gate:     gate,
		store:    store,
		forms:    forms,
		renderer: renderer,
		log:      log,
	}
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin", h.HandleIndex)
	mux.HandleFunc("POST /admin/login", h.HandleLogin)
	mux.HandleFunc("POST /admin/logout", h.HandleLogout)

	mux.HandleFunc("POST /admin/channels", h.HandleSubmitChannel)
	mux.HandleFunc("POST /admin/channels/new", h.HandleNewChannel)
	mux.HandleFunc("POST /admin/channels/cancel", h.HandleCancelChannel)
	mux.HandleFunc("POST /admin/channels/{id}/edit", h.HandleEditChannel)
	mux.HandleFunc("POST /admin/channels/{id}/delete", h.HandleDeleteChannel)

	mux.HandleFunc("POST /admin/categories", h.HandleSubmitCategory)
	mux.HandleFunc("POST /admin/categories/new", h.HandleNewCategory)
	mux.HandleFunc("POST /admin/categories/cancel", h.HandleCancelCategory)
	mux.HandleFunc("POST /admin/categories/{id}/edit", h.HandleEditCategory)
	mux.HandleFunc("POST /admin/categories/{id}/delete", h.HandleDeleteCategory)
}

// HandleIndex shows the login form to anonymous visitors and the panel to
// admins. Every visit fetches both lists again; open editors survive, except
// after a failed fetch where the panel starts over.
func (h *AdminHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(r)
	if !ok {
		h.render(w, http.StatusOK, "login.html", LoginPage{})
		return
	}
	sess.Lock()
	defer sess.Unlock()

	if sess.Panel == nil || sess.Panel.Err != nil {
		sess.Panel = NewPanel(h.store, h.forms)
	}
	panel := sess.Panel
	if err := panel.Refresh(r.Context()); err != nil {
		h.renderConfigError(w, err)
		return
	}
	h.render(w, http.StatusOK, "admin.html", h.page(sess, panel))
}

func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess, err := h.gate.Login(r.PostFormValue("password"))
	if err != nil {
		h.log.Warn().Str("remote", r.RemoteAddr).Msg("admin login rejected")
		h.render(w, http.StatusUnauthorized, "login.html", LoginPage{
			Notices: []web.Notice{web.Failure("Invalid password")},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	sess.Lock()
	sess.Flash(web.Success("Logged in successfully"))
	sess.Unlock()

	h.log.Info().Msg("admin logged in")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		h.gate.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// --- Channels ---

func (h *AdminHandler) HandleNewChannel(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		panel.Channel.OpenCreate()
		return true
	})
}

func (h *AdminHandler) HandleEditChannel(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		if !panel.EditChannel(r.PathValue("id")) {
			sess.Flash(web.Failure("Channel not found"))
		}
		return true
	})
}

func (h *AdminHandler) HandleCancelChannel(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		panel.Channel.Close()
		return true
	})
}

func (h *AdminHandler) HandleSubmitChannel(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		action, err := panel.Channel.Submit(r.Context(), bindChannelForm(r))
		return h.finish(w, sess, "Channel", action, err)
	})
}

func (h *AdminHandler) HandleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		id := r.PathValue("id")
		err := panel.Channel.Delete(r.Context(), id, r.PostFormValue("confirm") == "yes")
		if errors.Is(err, ErrNotConfirmed) {
			h.render(w, http.StatusOK, "confirm.html", ConfirmPage{
				Message: "Are you sure you want to delete this channel?",
				Action:  "/admin/channels/" + id + "/delete",
			})
			return false
		}
		return h.finish(w, sess, "Channel", Deleted, err)
	})
}

// --- Categories ---

func (h *AdminHandler) HandleNewCategory(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		panel.Category.OpenCreate()
		return true
	})
}

func (h *AdminHandler) HandleEditCategory(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		if !panel.EditCategory(r.PathValue("id")) {
			sess.Flash(web.Failure("Category not found"))
		}
		return true
	})
}

func (h *AdminHandler) HandleCancelCategory(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		panel.Category.Close()
		return true
	})
}

func (h *AdminHandler) HandleSubmitCategory(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		action, err := panel.Category.Submit(r.Context(), bindCategoryForm(r))
		return h.finish(w, sess, "Category", action, err)
	})
}

func (h *AdminHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.withPanel(w, r, func(sess *Session, panel *Panel) bool {
		id := r.PathValue("id")
		err := panel.Category.Delete(r.Context(), id, r.PostFormValue("confirm") == "yes")
		if errors.Is(err, ErrNotConfirmed) {
			h.render(w, http.StatusOK, "confirm.html", ConfirmPage{
				Message: "Are you sure you want to delete this category? All channels in this category will also be deleted.",
				Action:  "/admin/categories/" + id + "/delete",
			})
			return false
		}
		return h.finish(w, sess, "Category", Deleted, err)
	})
}

// --- Helpers ---

func (h *AdminHandler) session(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return h.gate.Session(c.Value)
}

// withPanel runs fn for an authenticated session with the session locked.
// When fn returns true the browser is sent back to the panel.
func (h *AdminHandler) withPanel(w http.ResponseWriter, r *http.Request, fn func(sess *Session, panel *Panel) bool) {
	sess, ok := h.session(r)
	if !ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sess.Lock()
	defer sess.Unlock()
	if sess.Panel == nil {
		sess.Panel = NewPanel(h.store, h.forms)
	}
	if fn(sess, sess.Panel) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

// finish turns the outcome of a write into a notice. A failed refetch is a
// fetch error and replaces the panel with the error page.
func (h *AdminHandler) finish(w http.ResponseWriter, sess *Session, entity string, action Action, err error) bool {
	var ve *ValidationError
	var me *MutationError
	switch {
	case err == nil:
		sess.Flash(web.Success(fmt.Sprintf("%s %s successfully", entity, action)))
		return true
	case errors.As(err, &ve):
		sess.Flash(web.Failure(ve.Message))
		return true
	case errors.As(err, &me):
		h.log.Error().Err(err).Str("entity", entity).Msg("admin write failed")
		sess.Flash(web.Failure(fmt.Sprintf("Failed to %s %s: %s", me.Action, strings.ToLower(entity), me.Message())))
		return true
	default:
		h.renderConfigError(w, err)
		return false
	}
}

func (h *AdminHandler) page(sess *Session, panel *Panel) AdminPage {
	page := AdminPage{Notices: sess.TakeNotices()}
	for _, c := range panel.Categories {
		page.Categories = append(page.Categories, CategoryRow{
			ID:           c.ID,
			Name:         c.Name,
			ChannelCount: panel.ChannelCount(c.ID),
		})
	}
	for _, ch := range panel.Channels {
		page.Channels = append(page.Channels, ChannelRow{
			ID:           ch.ID,
			Name:         ch.Name,
			LogoURL:      ch.LogoURL,
			EmbedURL:     ch.EmbedURL,
			CategoryName: ch.CategoryName(),
		})
	}

	if ed := panel.Channel; ed.Open {
		dialog := &ChannelDialog{Title: "Add Channel", Submit: "Create", Form: ed.Form, Categories: panel.Categories}
		if ed.Editing() {
			dialog.Title, dialog.Submit = "Edit Channel", "Update"
		}
		page.ChannelDialog = dialog
	}
	if ed := panel.Category; ed.Open {
		dialog := &CategoryDialog{Title: "Add Category", Submit: "Create", Form: ed.Form}
		if ed.Editing() {
			dialog.Title, dialog.Submit = "Edit Category", "Update"
		}
		page.CategoryDialog = dialog
	}
	return page
}

func (h *AdminHandler) renderConfigError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("load admin catalog")
	h.render(w, http.StatusServiceUnavailable, "error.html", web.ConfigErrorPage{
		Message:  web.ConfigErrorMessage(err),
		BackLink: true,
	})
}

func (h *AdminHandler) render(w http.ResponseWriter, status int, name string, data any) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.log.Error().Err(err).Str("page", name).Msg("render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
