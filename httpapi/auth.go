package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	backoffice "github.com/omjyotish/backoffice"
)

// sidCookieName stores the cache session ID next to the access token
// so the resolver can take the cheap path.
const sidCookieName = "bo_sid"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionPayload struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Dev         bool     `json:"dev,omitempty"`
}

func sessionBody(sess *backoffice.AdminSession) sessionPayload {
	return sessionPayload{
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		Role:        sess.Role,
		Permissions: sess.Permissions,
		Dev:         sess.Dev,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, backoffice.ErrValidation)
		return
	}

	result, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.setSessionCookies(w, result)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      result.AccessToken,
		"session_id": result.SessionID,
		"session":    sessionBody(result.Session),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid := s.sessionID(r); sid != "" {
		if err := s.engine.Logout(r.Context(), sid); err != nil {
			writeError(w, err)
			return
		}
	}

	s.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// handleSession reports the caller's resolved identity. Resolution
// never errors; an unauthenticated caller gets a 200 with
// authenticated=false rather than a 401, matching what a login page
// poll expects.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token, _ := tokenFromRequest(r, s.config.CookieName)
	sess := s.engine.Resolve(r.Context(), s.sessionID(r), token)
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"session":       sessionBody(sess),
	})
}

func (s *Server) sessionID(r *http.Request) string {
	if c, err := r.Cookie(sidCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setSessionCookies(w http.ResponseWriter, result *backoffice.LoginResult) {
	expires := time.Unix(result.Session.ExpiresAt, 0)
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    result.AccessToken,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookieName,
		Value:    result.SessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{s.config.CookieName, sidCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
