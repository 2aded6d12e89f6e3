package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"kyklos/internal/api"
	internalauth "kyklos/internal/auth"
)

func (s *Server) handleAuthSignup(w http.ResponseWriter, r *http.Request) {
	var req api.AuthCredentialsRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	result, err := s.authService.Signup(r.Context(), req.Username, req.Password, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, r, result)
	s.writeJSON(w, http.StatusCreated, api.AuthMeResponse{
		Authenticated: true,
		Username:      result.User.Username,
		Role:          result.User.Role,
	})
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req api.AuthCredentialsRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	limiterKey := loginAttemptKey(req.Username, r)
	if s.loginLimiter != nil && !s.loginLimiter.Allow(limiterKey, now) {
		s.writeErrorReq(w, r, http.StatusTooManyRequests, apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many login attempts; retry later"),
		})
		return
	}

	result, err := s.authService.Login(r.Context(), req.Username, req.Password, now)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			if s.loginLimiter != nil {
				s.loginLimiter.RegisterFailure(limiterKey, now)
			}
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(errInvalidCredentials))
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	if s.loginLimiter != nil {
		s.loginLimiter.Reset(limiterKey)
	}

	s.setSessionCookie(w, r, result)
	s.writeJSON(w, http.StatusOK, api.AuthMeResponse{
		Authenticated: true,
		Username:      result.User.Username,
		Role:          result.User.Role,
	})
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)
	if token != "" {
		if err := s.authService.RevokeSessionToken(r.Context(), token, time.Now().UTC()); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)
	user, err := s.authService.AuthenticateSessionToken(r.Context(), token, time.Now().UTC())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if user == nil {
		s.writeJSON(w, http.StatusOK, api.AuthMeResponse{Authenticated: false})
		return
	}

	s.writeJSON(w, http.StatusOK, api.AuthMeResponse{
		Authenticated: true,
		Username:      user.Username,
		Role:          user.Role,
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, result *authLoginResult) {
	ttlSeconds := int(s.authService.SessionTTL() / time.Second)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   ttlSeconds,
		Expires:  result.ExpiresAt,
	})
}

func loginAttemptKey(username string, r *http.Request) string {
	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		normalized = strings.TrimSpace(strings.ToLower(username))
	}
	host := r.RemoteAddr
	if h, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
		host = h
	}
	return normalized + "|" + host
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		return strings.ToLower(proto)
	}
	return "http"
}
