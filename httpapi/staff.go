package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	backoffice "github.com/omjyotish/backoffice"
)

// adminCreationTokenHeader authorizes staff creation from provisioning
// scripts that do not hold an admin session.
const adminCreationTokenHeader = "X-Admin-Creation-Token"

type createStaffRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    string `json:"role_id"`
}

// handleCreateStaff accepts either the static creation token or an
// admin session. The authorization question is settled before the body
// is read.
func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	if !s.staffCreationAuthorized(r) {
		writeError(w, backoffice.ErrUnauthenticated)
		return
	}

	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	rec, err := s.engine.CreateStaff(r.Context(), backoffice.CreateStaffInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		RoleID:    req.RoleID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "staff member created",
		"staff": map[string]string{
			"id":    rec.ID,
			"email": rec.Email,
		},
	})
}

func (s *Server) staffCreationAuthorized(r *http.Request) bool {
	if s.config.AdminCreationToken != "" {
		supplied := r.Header.Get(adminCreationTokenHeader)
		if supplied != "" {
			return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.config.AdminCreationToken)) == 1
		}
	}

	token, ok := tokenFromRequest(r, s.config.CookieName)
	if !ok {
		return false
	}
	_, err := s.engine.Authorize(r.Context(), token, staffWriteTags()...)
	return err == nil
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.ListStaff(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"staff": records})
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleSetStaffActive(w http.ResponseWriter, r *http.Request) {
	staffID := r.PathValue("id")

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	if err := s.engine.SetStaffActive(r.Context(), staffID, *req.Active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "staff member updated"})
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.engine.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}
