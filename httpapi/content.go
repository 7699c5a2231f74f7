package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	backoffice "github.com/omjyotish/backoffice"
)

// publicWriteCollections are the collections the public site may write
// to without a session: visitors submit bookings and testimonials.
var publicWriteCollections = map[string]struct{}{
	"bookings":     {},
	"testimonials": {},
}

const maxContentBody = 1 << 20

func (s *Server) handleContentList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.engine.ContentList(r.Context(), r.PathValue("collection"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

func (s *Server) handleContentGet(w http.ResponseWriter, r *http.Request) {
	row, err := s.engine.ContentGet(r.Context(), r.PathValue("collection"), r.PathValue("id"))
	if err != nil {
		if backoffice.ContentRowMissing(err) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "row not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleContentCreate serves both the public submission collections and
// the guarded admin writes. For non-public collections authorization is
// settled before the body is read.
func (s *Server) handleContentCreate(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	if _, public := publicWriteCollections[collection]; !public {
		if err := s.authorizeContentWrite(r); err != nil {
			writeError(w, err)
			return
		}
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxContentBody))
	if err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	row, err := s.engine.ContentPut(r.Context(), collection, "", json.RawMessage(data))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleContentUpdate(w http.ResponseWriter, r *http.Request) {
	if err := s.authorizeContentWrite(r); err != nil {
		writeError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxContentBody))
	if err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	row, err := s.engine.ContentPut(r.Context(), r.PathValue("collection"), r.PathValue("id"), json.RawMessage(data))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleContentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.authorizeContentWrite(r); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.ContentDelete(r.Context(), r.PathValue("collection"), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) authorizeContentWrite(r *http.Request) error {
	token, ok := tokenFromRequest(r, s.config.CookieName)
	if !ok {
		return backoffice.ErrUnauthenticated
	}
	_, err := s.engine.Authorize(r.Context(), token, contentWriteTags()...)
	return err
}
