package chi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/fwojciec/siteask"
)

// handleListAssets returns the asset inventory as JSON.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.Store.ListAssets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(infos)
}

// handleAssetContent serves an asset's bytes under its escaped id.
// Ids are URL-shaped, so the route uses a wildcard rather than a single
// path segment.
func (s *Server) handleAssetContent(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	id, err := url.PathUnescape(raw)
	if err != nil {
		s.writeError(w, r, siteask.Errorf(siteask.EINVALID, "malformed asset id"))
		return
	}

	asset, err := s.Store.FindAssetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.Store.AssetContent(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	if asset.MIMEType != "" {
		w.Header().Set("Content-Type", asset.MIMEType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if asset.Filename != "" {
		w.Header().Set("Content-Disposition", `inline; filename="`+asset.Filename+`"`)
	}
	_, _ = io.Copy(w, rc)
}
