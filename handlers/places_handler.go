package handlers

import (
	"net/http"

	"places-api/middleware"
	"places-api/models"
	"places-api/services"
	"places-api/utils/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type PlacesHandler struct {
	placeService *services.PlaceService
	blobs        services.BlobStore
	validate     *validator.Validate
	maxImageSize int64
}

type createPlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"min=5"`
	Address     string `json:"address" validate:"required"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"min=5"`
}

type placeResponse struct {
	Place models.Place `json:"place"`
}

type placesResponse struct {
	Places []models.Place `json:"places"`
}

func NewPlacesHandler(placeService *services.PlaceService, blobs services.BlobStore, maxImageSize int64) *PlacesHandler {
	return &PlacesHandler{
		placeService: placeService,
		blobs:        blobs,
		validate:     newValidator(),
		maxImageSize: maxImageSize,
	}
}

func (h *PlacesHandler) GetPlaceByID(w http.ResponseWriter, r *http.Request) {
	place, err := h.placeService.GetPlaceByID(r.Context(), mux.Vars(r)["placeId"])
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeResponse{Place: place})
}

func (h *PlacesHandler) GetPlacesByUser(w http.ResponseWriter, r *http.Request) {
	places, err := h.placeService.GetPlacesByUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if places == nil {
		places = []models.Place{}
	}
	writeJSON(w, http.StatusOK, placesResponse{Places: places})
}

// CreatePlace accepts a multipart form with title, description, address and
// a required image.
func (h *PlacesHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, errors.ErrUnauthorized)
		return
	}

	if err := parseMultipart(w, r, h.maxImageSize); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	input := createPlaceRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Address:     r.FormValue("address"),
	}
	if err := validateInput(h.validate, input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	image, err := formImage(r, h.maxImageSize)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if image == nil {
		middleware.WriteError(w, r, errors.ErrValidation.WithMessage("An image is required."))
		return
	}

	imageRef, err := h.blobs.Upload(r.Context(), image.data, image.mimeType)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	place, err := h.placeService.CreatePlace(r.Context(), services.CreatePlaceInput{
		Title:       input.Title,
		Description: input.Description,
		Address:     input.Address,
		CreatorID:   userID,
		Image:       imageRef,
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeResponse{Place: place})
}

func (h *PlacesHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, errors.ErrUnauthorized)
		return
	}

	var input updatePlaceRequest
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := validateInput(h.validate, input); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	place, err := h.placeService.UpdatePlace(r.Context(), mux.Vars(r)["placeId"], userID, input.Title, input.Description)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeResponse{Place: place})
}

func (h *PlacesHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, errors.ErrUnauthorized)
		return
	}

	if err := h.placeService.DeletePlace(r.Context(), mux.Vars(r)["placeId"], userID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted place."})
}
