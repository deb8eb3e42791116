package folio

import (
	"encoding/json"
	"net/http"
	"strings"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// handleSignIn exchanges the author's credentials for a session token.
func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	token, err := a.auth.SignIn(req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, Email: req.Email})
}

// handleSignOut ends the session. Tokens are stateless so there is nothing to
// revoke server-side; the client discards the token.
func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleGetCurrentUser returns the user behind the session token.
func (a *App) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.Verify(tokenFromHeader(r))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// tokenFromHeader extracts the bearer token from the Authorization header.
func tokenFromHeader(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(auth, bearerPrefix) {
		return auth[len(bearerPrefix):]
	}
	return auth
}
