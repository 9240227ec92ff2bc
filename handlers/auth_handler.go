package handlers

import (
	"net/http"

	"places-api/middleware"
	"places-api/services"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	userService  *services.UserService
	blobs        services.BlobStore
	validate     *validator.Validate
	maxImageSize int64
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewAuthHandler(userService *services.UserService, blobs services.BlobStore, maxImageSize int64) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		blobs:        blobs,
		validate:     newValidator(),
		maxImageSize: maxImageSize,
	}
}

// Signup accepts either a JSON body or a multipart form carrying an
// optional avatar image.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var (
		input signupRequest
		image *uploadedImage
	)
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.maxImageSize); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		input = signupRequest{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
		img, err := formImage(r, h.maxImageSize)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		image = img
	} else if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if err := validateInput(h.validate, input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	var imageRef string
	if image != nil {
		ref, err := h.blobs.Upload(r.Context(), image.data, image.mimeType)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		imageRef = ref
	}

	res, err := h.userService.Signup(r.Context(), services.SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Image:    imageRef,
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := validateInput(h.validate, input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	res, err := h.userService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
