package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"geocapture/internal/dto"
	"geocapture/internal/logger"
	"geocapture/internal/middleware"
	"geocapture/internal/model"
	"geocapture/internal/service/auth"
)

// Authenticator is the account/session provider behind the auth endpoints.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, token string) error
}

// SignUpHandler handles POST /auth/signup.
func SignUpHandler(authSvc Authenticator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := readCredentials(w, r)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		session, err := authSvc.SignUp(r.Context(), creds.Email, creds.Password)
		if err != nil {
			writeAuthError(w, r, logger, err)
			return
		}

		setSessionCookie(w, session)
		respondSession(w, r, session, http.StatusCreated)
	}
}

// LoginHandler handles POST /auth/login by checking credentials and issuing
// an access-token cookie.
func LoginHandler(authSvc Authenticator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := readCredentials(w, r)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		session, err := authSvc.SignIn(r.Context(), creds.Email, creds.Password)
		if err != nil {
			writeAuthError(w, r, logger, err)
			return
		}

		setSessionCookie(w, session)
		respondSession(w, r, session, http.StatusOK)
	}
}

// LogoutHandler revokes the session and clears the cookie.
func LogoutHandler(authSvc Authenticator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(middleware.CookieName); err == nil {
			if err := authSvc.SignOut(r.Context(), cookie.Value); err != nil {
				logger.Error("Error signing out: %v", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:   middleware.CookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1, // delete
		})

		if isJSONRequest(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func readCredentials(w http.ResponseWriter, r *http.Request) (dto.Credentials, error) {
	var creds dto.Credentials
	if isJSONRequest(r) {
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&creds)
		return creds, err
	}

	creds.Email = r.FormValue("email")
	creds.Password = r.FormValue("password")
	return creds, nil
}

func setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// respondSession answers scripts with JSON and browsers with a redirect home.
func respondSession(w http.ResponseWriter, r *http.Request, session *model.Session, status int) {
	if !isJSONRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, status, session)
}

// writeAuthError answers JSON callers with an AuthError body so the pages
// can show the message inline.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *logger.Logger, err error) {
	status, message := http.StatusInternalServerError, "Internal Server Error"
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrEmailTaken):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	default:
		logger.Error("Authentication error: %v", err)
	}

	if isJSONRequest(r) {
		writeJSON(w, status, dto.AuthError{Message: message})
		return
	}
	http.Error(w, message, status)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
