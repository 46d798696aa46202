package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/auth"
	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/storage"
)

type signupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	IsAdmin   *bool   `json:"is_admin"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Password == "" {
		s.respondWithError(w, http.StatusBadRequest, "first_name, last_name and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	user := &domain.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
	}
	id, err := s.users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			s.respondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		s.logger.Error("failed to create user", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not create user")
		return
	}
	user.ID = id

	s.logger.Info("user created", zap.Int64("user_id", id), zap.String("email", user.Email))
	s.respondWithJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error("failed to load user for login", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not log in")
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10), user.IsAdmin)
	if err != nil {
		s.logger.Error("failed to issue token", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not log in")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(s.tokens.TTL().Seconds()),
	})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusUnauthorized, "Invalid token subject")
		return
	}
	user, err := s.users.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error("failed to load current user", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not load user")
		return
	}
	s.respondWithJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 1000 {
		s.respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		s.respondWithError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}

	users, err := s.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not list users")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	s.respondWithJSON(w, http.StatusOK, users)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	claims := claimsFrom(r.Context())
	// Non-admins may only update themselves, and may not grant admin.
	if !claims.IsAdmin && claims.Subject != strconv.FormatInt(id, 10) {
		s.respondWithError(w, http.StatusForbidden, "Cannot update another user")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsAdmin != nil && !claims.IsAdmin {
		s.respondWithError(w, http.StatusForbidden, "Only administrators can change the admin flag")
		return
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			s.respondWithError(w, http.StatusBadRequest, "Invalid email address")
			return
		}
	}

	upd := storage.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsAdmin:   req.IsAdmin,
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("failed to hash password", zap.Error(err))
			s.respondWithError(w, http.StatusInternalServerError, "Could not update user")
			return
		}
		upd.PasswordHash = &hash
	}

	if err := s.users.UpdateUser(r.Context(), id, upd); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			s.respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, storage.ErrEmailTaken):
			s.respondWithError(w, http.StatusConflict, "Email already registered")
		default:
			s.logger.Error("failed to update user", zap.Int64("user_id", id), zap.Error(err))
			s.respondWithError(w, http.StatusInternalServerError, "Could not update user")
		}
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if err := s.users.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error("failed to delete user", zap.Int64("user_id", id), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not delete user")
		return
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
