package handlers

import (
	"net/http"

	"places-api/middleware"
	"places-api/models"
	"places-api/services"
)

type UserHandler struct {
	userService *services.UserService
}

type usersResponse struct {
	Users []models.User `json:"users"`
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUsers lists every user without password hashes.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}
