package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"places-api/storage"
	"places-api/utils/errors"

	"github.com/go-playground/validator/v10"
)

// multipartOverhead is the room left for text fields next to the image.
const multipartOverhead = 64 << 10

// newValidator reports field errors under their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateInput(v *validator.Validate, input interface{}) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.ErrValidation.WithCause(err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return errors.ErrValidation.WithCause(fmt.Errorf("invalid fields: %s", strings.Join(fields, ", ")))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ErrValidation.WithCause(err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart parses a form whose single file may be at most maxImage bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxImage int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxImage+multipartOverhead)
	if err := r.ParseMultipartForm(maxImage); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ErrValidation.WithMessage("File too large.")
		}
		return errors.ErrValidation.WithCause(err)
	}
	return nil
}

type uploadedImage struct {
	data     []byte
	mimeType string
}

// formImage reads the "image" part of a parsed multipart form. It returns
// nil when the part is absent.
func formImage(r *http.Request, maxImage int64) (*uploadedImage, error) {
	file, header, err := r.FormFile("image")
	if stderrors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.ErrValidation.WithCause(err)
	}
	defer file.Close()

	if header.Size > maxImage {
		return nil, errors.ErrValidation.WithMessage("File too large.")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.ErrValidation.WithCause(err)
	}

	mimeType := header.Header.Get("Content-Type")
	if !storage.SupportedMimeType(mimeType) {
		mimeType = http.DetectContentType(data)
	}
	if !storage.SupportedMimeType(mimeType) {
		return nil, errors.ErrValidation.WithMessage("Invalid mime type!")
	}
	return &uploadedImage{data: data, mimeType: mimeType}, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
