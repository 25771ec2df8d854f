package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ─── ADMIN SESSION ────────────────────────────────────────────────────────────

const (
	adminCookieName = "admin_session"
	adminIssuer     = "ops-diagnostic"
	adminSubject    = "admin"
)

var errAdminSession = errors.New("api: invalid admin session")

type adminClaims struct {
	jwt.RegisteredClaims
}

// issueAdminToken signs a session JWT valid for AdminSessionTTL.
func (s *Server) issueAdminToken(now time.Time) (string, time.Time, error) {
	if s.cfg.AdminSessionSecret == "" {
		return "", time.Time{}, errAdminSession
	}
	exp := now.Add(s.cfg.AdminSessionTTL)
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    adminIssuer,
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AdminSessionSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// parseAdminToken verifies signature, algorithm, expiry, issuer and subject.
func (s *Server) parseAdminToken(raw string) error {
	if s.cfg.AdminSessionSecret == "" || strings.TrimSpace(raw) == "" {
		return errAdminSession
	}
	var claims adminClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(s.cfg.AdminSessionSecret), nil
	})
	if err != nil {
		return errAdminSession
	}
	return nil
}

// checkAdminPassword compares against the configured bcrypt hash.
func (s *Server) checkAdminPassword(password string) bool {
	if s.cfg.AdminPasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) == nil
}

func (s *Server) setAdminCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     adminCookieName,
		Value:    value,
		Path:     "/api/admin",
		HttpOnly: true,
		Secure:   s.cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if value == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// requireAdmin is chi middleware that rejects requests without a valid
// admin_session cookie.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(adminCookieName)
		if err != nil {
			respondErr(w, http.StatusUnauthorized, "admin session required")
			return
		}
		if err := s.parseAdminToken(c.Value); err != nil {
			respondErr(w, http.StatusUnauthorized, "admin session invalid or expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─── POST /api/admin/login ────────────────────────────────────────────────────

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminLoginResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decode(w, r, &req) {
		return
	}

	if !s.checkAdminPassword(req.Password) {
		s.logger.Warn("admin: failed login", logField(r))
		respondErr(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, exp, err := s.issueAdminToken(s.now().UTC())
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	s.setAdminCookie(w, token, exp)
	respond(w, http.StatusOK, adminLoginResponse{ExpiresAt: exp})
}

// ─── POST /api/admin/logout ───────────────────────────────────────────────────

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.setAdminCookie(w, "", time.Unix(0, 0))
	w.WriteHeader(http.StatusNoContent)
}
