package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"

	"github.com/gameportal/backend/internal/models"
)

// ErrInvalidCredentials covers both "no such user" and "wrong password".
// Callers must not be able to tell which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService verifies credentials against the two legacy user stores
// and manages the session lifecycle. The portal store (portal_users) is
// canonical for portal login; the game store (game_accounts) holds the
// legacy-encoded credential and the account identity.
type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	schemes   *SchemeRegistry
	issuer    *SessionIssuer
	validator *validator.Validate
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"alice"`
	Password string `json:"password" validate:"required" example:"pw123456"`
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Username string `json:"username" validate:"required" example:"alice"`
	Email    string `json:"email" validate:"required,email" example:"alice@x.com"`
	Password string `json:"password" validate:"required,min=6" example:"pw123456"`
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, schemes *SchemeRegistry, issuer *SessionIssuer) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		schemes:   schemes,
		issuer:    issuer,
		validator: validator.New(),
	}
}

// verifyRecord checks password against one credential record under the
// scheme the record was stored with.
func (s *AuthService) verifyRecord(record models.CredentialRecord, password string) error {
	scheme, err := s.schemes.Get(record.Scheme)
	if err != nil {
		log.Printf("[AUTH] Credential record for user %d carries unknown scheme %q", record.UserID, record.Scheme)
		return ErrInvalidCredentials
	}
	if !scheme.Matches(password, record.Digest) {
		return ErrInvalidCredentials
	}
	return nil
}

// Verify authenticates a portal login against the canonical portal
// record and resolves the game account identity.
func (s *AuthService) Verify(ctx context.Context, username, password string) (models.UserIdentity, error) {
	var record models.CredentialRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT id, password, hash_scheme FROM portal_users WHERE username = $1",
		username).Scan(&record.UserID, &record.Digest, &record.Scheme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserIdentity{}, ErrInvalidCredentials
		}
		return models.UserIdentity{}, err
	}

	if err := s.verifyRecord(record, password); err != nil {
		return models.UserIdentity{}, err
	}

	var identity models.UserIdentity
	err = s.db.QueryRowContext(ctx,
		"SELECT id, username, access_level FROM game_accounts WHERE username = $1",
		username).Scan(&identity.ID, &identity.Username, &identity.AccessLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Portal record without a game account: the half-registered
			// state the dual-store write can leave behind.
			log.Printf("[AUTH] Portal user %q has no game account", username)
			return models.UserIdentity{}, ErrInvalidCredentials
		}
		return models.UserIdentity{}, err
	}

	return identity, nil
}

// VerifyLegacy authenticates against the game store's legacy-encoded
// record. Used by the admin login.
func (s *AuthService) VerifyLegacy(ctx context.Context, username, password string) (models.UserIdentity, error) {
	var record models.CredentialRecord
	var identity models.UserIdentity
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, access_level, password, hash_scheme FROM game_accounts WHERE username = $1",
		username).Scan(&identity.ID, &identity.Username, &identity.AccessLevel, &record.Digest, &record.Scheme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserIdentity{}, ErrInvalidCredentials
		}
		return models.UserIdentity{}, err
	}
	record.UserID = identity.ID

	if err := s.verifyRecord(record, password); err != nil {
		return models.UserIdentity{}, err
	}

	return identity, nil
}

// Register handles user registration
// @Summary Register a new account
// @Description Create the account in both user stores
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} map[string]interface{} "Registration successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 409 {string} string "Username or email already exists"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RegisterRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := r.Context()

	// Username must be free in BOTH stores, email in the game store.
	taken, err := s.exists(ctx, "SELECT 1 FROM game_accounts WHERE username = $1", username)
	if err == nil && !taken {
		taken, err = s.exists(ctx, "SELECT 1 FROM portal_users WHERE username = $1", username)
	}
	if err != nil {
		log.Printf("[AUTH] Uniqueness check failed for %q: %v", username, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}
	if taken {
		SendErrorResponse(w, "Username already exists", http.StatusConflict, nil)
		return
	}

	emailTaken, err := s.exists(ctx, "SELECT 1 FROM game_accounts WHERE email = $1", email)
	if err != nil {
		log.Printf("[AUTH] Email check failed for %q: %v", email, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}
	if emailTaken {
		SendErrorResponse(w, "Email already registered", http.StatusConflict, nil)
		return
	}

	legacyDigest, err := s.encodeWith(SchemeLegacyBase64, req.Password)
	if err == nil {
		var portalDigest string
		portalDigest, err = s.encodeWith(SchemeArgon2ID, req.Password)
		if err == nil {
			s.insertAccounts(w, r, username, email, legacyDigest, portalDigest)
			return
		}
	}

	log.Printf("[AUTH] Password encoding failed for %q: %v", username, err)
	SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
}

func (s *AuthService) encodeWith(schemeName, password string) (string, error) {
	scheme, err := s.schemes.Get(schemeName)
	if err != nil {
		return "", err
	}
	return scheme.Encode(password)
}

// insertAccounts writes the two store rows. The writes are one logical
// operation but span two stores with no shared transaction; a failure
// after the first insert leaves a half-registered account, bounded by
// each store's own unique constraints.
func (s *AuthService) insertAccounts(w http.ResponseWriter, r *http.Request, username, email, legacyDigest, portalDigest string) {
	ctx := r.Context()

	var account models.GameAccount
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO game_accounts
			(username, email, password, hash_scheme, access_level, premium, silk, is_online, receive_welcome, discord_id, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, false, true, 0, $5)
		RETURNING id, username, email, access_level`,
		username, email, legacyDigest, SchemeLegacyBase64, time.Now()).
		Scan(&account.ID, &account.Username, &account.Email, &account.AccessLevel)
	if err != nil {
		log.Printf("[AUTH] Game account creation failed for %q: %v", username, err)
		SendErrorResponse(w, "Username already exists", http.StatusConflict, nil)
		return
	}

	var portal models.PortalUser
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO portal_users (username, password, hash_scheme, access_level)
		VALUES ($1, $2, $3, 0)
		RETURNING id, username, access_level`,
		username, portalDigest, SchemeArgon2ID).
		Scan(&portal.ID, &portal.Username, &portal.AccessLevel)
	if err != nil {
		// The game account row exists without a portal record. There is
		// no compensation step; the account stays half-registered until
		// reconciled out of band.
		log.Printf("[AUTH] Portal user creation failed for %q after game account %d was created: %v",
			username, account.ID, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Account created - game id %d, portal id %d, username %q", account.ID, portal.ID, username)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message":     "Registration successful",
		"userAccount": account,
		"userConfig":  portal,
	})
}

// Login handles portal authentication
// @Summary Login
// @Description Authenticate with username and password, set session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{} "Login successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid credentials"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)
	s.login(w, r, s.Verify, 0)
}

// AdminLogin authenticates against the game store's legacy record and
// additionally requires elevated access
// @Summary Admin login
// @Description Authenticate an elevated account, set session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{} "Login successful"
// @Failure 401 {string} string "Invalid credentials"
// @Router /admin/login [post]
func (s *AuthService) AdminLogin(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Admin login attempt from IP: %s", r.RemoteAddr)
	s.login(w, r, s.VerifyLegacy, 1)
}

func (s *AuthService) login(w http.ResponseWriter, r *http.Request,
	verify func(context.Context, string, string) (models.UserIdentity, error), minAccessLevel int) {

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	identity, err := verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Printf("[AUTH] Invalid credentials for %q", req.Username)
			SendErrorResponse(w, "Invalid username or password", http.StatusUnauthorized, nil)
			return
		}
		log.Printf("[AUTH] Login failed for %q: %v", req.Username, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	// The access gate fails with the same generic message as a wrong
	// password; it must not reveal that the account exists.
	if identity.AccessLevel < minAccessLevel {
		log.Printf("[AUTH] Access level %d below required %d for %q", identity.AccessLevel, minAccessLevel, req.Username)
		SendErrorResponse(w, "Invalid username or password", http.StatusUnauthorized, nil)
		return
	}

	token, err := s.issuer.Issue(identity)
	if err != nil {
		log.Printf("[AUTH] Token issue failed for user %d: %v", identity.ID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	if _, err := s.db.ExecContext(r.Context(),
		"UPDATE game_accounts SET is_online = true WHERE id = $1", identity.ID); err != nil {
		log.Printf("[AUTH] Failed to set online flag for user %d: %v", identity.ID, err)
	}

	log.Printf("[AUTH] Login successful for user %d", identity.ID)

	s.issuer.SetSessionCookie(w, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Login successful",
		"user":    identity,
	})
}

// Logout handles logout
// @Summary Logout
// @Description Clear the session cookie and blacklist the token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := TokenFromRequest(r)
	if err == nil {
		// Best effort: an already-invalid token still gets its cookie
		// cleared below.
		if claims, err := s.issuer.Verify(token); err == nil {
			if s.redis != nil {
				ttl := time.Until(claims.ExpiresAt.Time)
				if ttl > 0 {
					key := fmt.Sprintf("blacklist:%s", token)
					if err := s.redis.Set(r.Context(), key, "1", ttl).Err(); err != nil {
						log.Printf("[AUTH] Failed to blacklist token: %v", err)
					}
				}
			}

			if _, err := s.db.ExecContext(r.Context(),
				"UPDATE game_accounts SET is_online = false WHERE id = $1", claims.UserID); err != nil {
				log.Printf("[AUTH] Failed to clear online flag for user %d: %v", claims.UserID, err)
			}
		}
	}

	s.issuer.ClearSessionCookie(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// VerifySession reports whether the request carries a valid session
// @Summary Verify session
// @Description Verify the session cookie and return fresh user data
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Authenticated"
// @Failure 401 {object} map[string]interface{} "Not authenticated"
// @Router /auth/verify [get]
func (s *AuthService) VerifySession(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": false,
			"message":       "Not authenticated",
		})
		return
	}

	// Fresh read: access level changes take effect without reissuing
	// the token.
	var identity models.UserIdentity
	err = s.db.QueryRowContext(r.Context(),
		"SELECT id, username, access_level FROM game_accounts WHERE id = $1",
		claims.UserID).Scan(&identity.ID, &identity.Username, &identity.AccessLevel)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": false,
			"message":       "Not authenticated",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": true,
		"user":          identity,
	})
}

// authenticate validates the cookie token including the blacklist.
func (s *AuthService) authenticate(r *http.Request) (*SessionClaims, error) {
	token, err := TokenFromRequest(r)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		key := fmt.Sprintf("blacklist:%s", token)
		if n, err := s.redis.Exists(r.Context(), key).Result(); err == nil && n > 0 {
			return nil, ErrTokenExpired
		}
	}

	return s.issuer.Verify(token)
}

func (s *AuthService) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
