package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"kyklos/internal/api"
	internalauth "kyklos/internal/auth"
	"kyklos/internal/store"
)

func (s *Server) handleAdminUserList(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, mapCoreError(err, "users unavailable", ErrCodeStoreFailure))
		return
	}

	resp := api.AdminUserListResponse{
		Count: len(users),
		Users: make([]api.AdminUserResponse, 0, len(users)),
	}
	for i := range users {
		resp.Users = append(resp.Users, adminUserView(&users[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminUserCreate(w http.ResponseWriter, r *http.Request) {
	var req api.AdminUserCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	username, err := internalauth.NormalizeUsername(req.Username)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequest(err))
		return
	}
	if err := internalauth.ValidatePassword(req.Password); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequest(err))
		return
	}

	passwordHash, err := internalauth.HashPassword(req.Password)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), username, passwordHash, "member", time.Now().UTC())
	if err != nil {
		if isUniqueConstraint(err) {
			s.writeErrorReq(w, r, http.StatusConflict,
				conflictCode(fmt.Errorf("username %q already exists", username), ErrCodeUsernameExists))
			return
		}
		s.writeServiceError(w, r, mapCoreError(err, "user not found", ErrCodeUserNotFound))
		return
	}

	s.log().Info("admin created user", "username", user.Username)
	s.writeJSON(w, http.StatusCreated, adminUserView(user))
}

func (s *Server) handleAdminUserUpdate(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("username is required"), ErrCodeMissingRequired))
		return
	}

	var req api.AdminUserUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if req.Disabled == nil {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("disabled is required"), ErrCodeMissingRequired))
		return
	}

	user, err := s.store.SetUserDisabled(r.Context(), username, *req.Disabled, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, mapCoreError(err, "user not found", ErrCodeUserNotFound))
		return
	}
	if user == nil {
		s.writeErrorReq(w, r, http.StatusNotFound,
			notFoundCode(fmt.Errorf("user %q not found", username), ErrCodeUserNotFound))
		return
	}

	s.log().Info("admin updated user", "username", user.Username, "disabled", user.Disabled)
	s.writeJSON(w, http.StatusOK, adminUserView(user))
}

func (s *Server) handleAdminUserDelete(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("username is required"), ErrCodeMissingRequired))
		return
	}

	deleted, err := s.store.DeleteUser(r.Context(), username)
	if err != nil {
		s.writeServiceError(w, r, mapCoreError(err, "user not found", ErrCodeUserNotFound))
		return
	}
	if !deleted {
		s.writeErrorReq(w, r, http.StatusNotFound,
			notFoundCode(fmt.Errorf("user %q not found", username), ErrCodeUserNotFound))
		return
	}

	s.log().Info("admin deleted user", "username", username)
	w.WriteHeader(http.StatusNoContent)
}

func adminUserView(user *store.AuthUser) api.AdminUserResponse {
	return api.AdminUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Disabled:  user.Disabled,
		CreatedAt: user.CreatedAt,
	}
}
