// Package httpapi serves the JSON API of the example.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mickamy/elucify/example/basic/auth"
	"github.com/mickamy/elucify/example/basic/model"
	"github.com/mickamy/elucify/example/basic/repo"
	"github.com/mickamy/elucify/orm"
	"github.com/mickamy/elucify/pool"
	"github.com/mickamy/elucify/scope"
)

// Handler serves the user API against the pool installed under DBName.
type Handler struct {
	DBName string
	Issuer *auth.Issuer
}

// RegisterPayload is the body of POST /users.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload is the body of POST /login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Routes mounts the API routes, relative to /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{id}", h.GetUser)
	})
	r.Post("/login", h.Login)
	r.With(h.Issuer.Middleware).Get("/me", h.Me)
}

// Health answers 200 when the database pool responds to a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	db, ok := pool.FromContext(r.Context(), h.DBName)
	if !ok {
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := db.PingContext(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateUser registers a user and stores the bcrypt hash of the password.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok {
		return
	}

	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		http.Error(w, "password must be at most "+strconv.Itoa(auth.MaxPasswordLength)+" bytes", http.StatusBadRequest)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to hash password")
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	user := model.User{Username: payload.Username, Email: payload.Email}
	if err := users.Register(r.Context(), &user, hash); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers returns users ordered by id. The optional page and per_page
// query parameters paginate the result.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	list, err := users.FindAll(r.Context(), scope.Paginate(page, perPage)...)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []model.User{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetUser returns one user by id.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	h.writeUser(w, r, users, int32(id))
}

// Login verifies the password of the user with the given email, records
// the login time and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	users, ok := h.users(w, r)
	if !ok {
		return
	}

	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	creds, err := users.FindCredentialsByEmail(r.Context(), strings.TrimSpace(payload.Email))
	if err != nil && !errors.Is(err, orm.ErrNotFound) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to load credentials")
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	var valid bool
	if err != nil {
		valid = auth.CheckMissing(payload.Password)
	} else {
		valid = auth.CheckPassword(creds.Password, payload.Password)
	}
	if !valid {
		zerolog.Ctx(r.Context()).Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	user, err := users.Owner(r.Context(), creds)
	if err == nil {
		err = users.TouchLastLogin(r.Context(), &user)
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int32("user_id", creds.UserID).Msg("Failed to record login")
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	token, err := h.Issuer.Issue(user)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int32("user_id", user.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Me returns the user the bearer token was issued for.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}
	users, ok := h.users(w, r)
	if !ok {
		return
	}
	h.writeUser(w, r, users, claims.UserID)
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, users *repo.UserRepository, id int32) {
	user, err := users.FindByID(r.Context(), id)
	switch {
	case errors.Is(err, orm.ErrNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Int32("user_id", id).Msg("Failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, user)
	}
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) (*repo.UserRepository, bool) {
	db, ok := pool.FromContext(r.Context(), h.DBName)
	if !ok {
		zerolog.Ctx(r.Context()).Error().Str("db", h.DBName).Msg("Database pool missing from request context")
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return repo.NewUserRepository(db), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
