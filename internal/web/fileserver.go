// Package web serves the embedded static assets (stylesheets, images).
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/brightlead/site/pkg/bl/logger"
	"github.com/go-chi/chi/v5"
)

const (
	staticAssetsPath = "assets/static"
	staticURLPrefix  = "/static"

	// Embedded assets only change on deploy, so a day is safe.
	cacheControl = "public, max-age=86400"
)

type FileServer struct {
	assetsFS embed.FS
	log      logger.Logger
}

func NewFileServer(assetsFS embed.FS, log logger.Logger) *FileServer {
	return &FileServer{
		assetsFS: assetsFS,
		log:      log,
	}
}

func (s *FileServer) RegisterRoutes(r chi.Router) {
	s.log.Infof("Registering file server: %s -> %s", staticURLPrefix, staticAssetsPath)

	staticFS, err := fs.Sub(s.assetsFS, staticAssetsPath)
	if err != nil {
		s.log.Errorf("Error creating static files sub-filesystem: %v", err)
		return
	}

	files := http.StripPrefix(staticURLPrefix+"/", http.FileServer(http.FS(staticFS)))
	r.Handle(staticURLPrefix+"/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	}))
}
