// Package server assembles the HTTP routes of the public view and the admin
// panel.
package server

import (
	"net/http"

	"github.com/livetv/livetv/app/admin"
	"github.com/livetv/livetv/app/api"
	"github.com/livetv/livetv/app/browser"
	"github.com/livetv/livetv/app/logging"
	"github.com/livetv/livetv/app/player"
	"github.com/livetv/livetv/app/store"
	"github.com/livetv/livetv/app/web"
	"github.com/rs/zerolog"
)

// Deps are the collaborators shared by all routes. A nil Catalog means the
// store could not be constructed; pages then show the configuration error.
type Deps struct {
	Catalog      store.Catalog
	Gate         *admin.Gate
	Renderer     *web.Renderer
	Policy       player.Policy
	Log          zerolog.Logger
	SecureCookie bool
}

func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	var reader browser.CatalogReader
	var writer admin.CatalogStore
	if deps.Catalog != nil {
		reader, writer = deps.Catalog, deps.Catalog
	}

	browserHandler := browser.NewBrowserHandler(reader, deps.Renderer, deps.Policy, deps.Log.With().Str("component", "browser").Logger())
	mux.HandleFunc("GET /{$}", browserHandler.HandleIndex)

	adminHandler := admin.NewAdminHandler(deps.Gate, writer, admin.NewFormValidator(deps.Policy), deps.Renderer, deps.Log.With().Str("component", "admin").Logger())
	adminHandler.SecureCookie = deps.SecureCookie
	adminHandler.Register(mux)

	mux.Handle("GET /static/", web.StaticHandler())
	mux.HandleFunc("GET /healthz", healthHandler(deps.Catalog))

	return logging.Middleware(deps.Log)(mux)
}

// healthHandler reports whether the catalog store answers a read.
func healthHandler(catalog store.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			api.ErrorResponse(w, http.StatusServiceUnavailable, "catalog store is not configured")
			return
		}
		if _, err := catalog.ListCategories(r.Context()); err != nil {
			api.ErrorResponse(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		api.OKResponse(w, map[string]string{"status": "ok"})
	}
}
