// Package site serves the embedded map viewer. The page draws the clusters
// of the current snapshot from /clusters.geojson at the map's zoom level.
package site

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Prefix is where the viewer is mounted.
const Prefix = "/map"

// Register attaches the viewer routes to r.
//
//	GET /       -> redirect to /map/
//	GET /map/*  -> embedded static files
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, Prefix+"/", http.StatusFound)
	})
	r.Get(Prefix, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, Prefix+"/", http.StatusMovedPermanently)
	})
	r.Get(Prefix+"/*", http.StripPrefix(Prefix, http.FileServer(FS())).ServeHTTP)
}
