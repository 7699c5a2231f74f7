package httpapi

import (
	"io"
	"net/http"

	backoffice "github.com/omjyotish/backoffice"
)

const maxUploadMemory = 8 << 20

// handleUpload stores a multipart file in the media store.
// Authentication runs before the form is parsed: an anonymous caller
// with a broken body still sees 401, not 400.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromRequest(r, s.config.CookieName)
	if !ok {
		writeError(w, backoffice.ErrUnauthenticated)
		return
	}
	if _, err := s.engine.Authorize(r.Context(), token, contentWriteTags()...); err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	bucket := r.FormValue("bucket")
	folder := r.FormValue("folder")
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	contentType := header.Header.Get("Content-Type")
	obj, url, err := s.engine.SaveObject(r.Context(), bucket, folder, header.Filename, contentType, data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     url,
		"path":    obj.Path,
	})
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	bucket := r.PathValue("bucket")
	path := r.PathValue("path")

	obj, data, err := s.engine.GetObject(r.Context(), bucket, path)
	if err != nil {
		if backoffice.ObjectMissing(err) {
			http.NotFound(w, r)
			return
		}
		writeError(w, err)
		return
	}

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
