package handlers

import (
	"net/http"

	"places-api/logger"
	"places-api/metrics"
	"places-api/middleware"
	"places-api/services"
	"places-api/utils/errors"

	"github.com/gorilla/mux"
)

// RouterDeps are the services and settings the HTTP layer needs.
type RouterDeps struct {
	Places         *services.PlaceService
	Users          *services.UserService
	Blobs          services.BlobStore
	Tokens         middleware.TokenVerifier
	Log            *logger.Logger
	AllowedOrigins []string
	MaxImageSize   int64
	// AuthLimiter throttles signup and login. Nil disables it.
	AuthLimiter *middleware.RateLimiter
}

func NewRouter(d RouterDeps) *mux.Router {
	placesHandler := NewPlacesHandler(d.Places, d.Blobs, d.MaxImageSize)
	authHandler := NewAuthHandler(d.Users, d.Blobs, d.MaxImageSize)
	userHandler := NewUserHandler(d.Users)

	cors := middleware.CORSMiddleware(d.AllowedOrigins)
	requestLog := middleware.LoggingMiddleware(d.Log)
	auth := middleware.JWTMiddleware(d.Tokens)
	limit := func(h http.Handler) http.Handler {
		if d.AuthLimiter == nil {
			return h
		}
		return d.AuthLimiter.Handler(h)
	}

	r := mux.NewRouter()
	r.Use(cors, requestLog, middleware.MetricsMiddleware(), middleware.ErrorMiddleware())

	// Place routes. The user listing must be registered before {placeId}.
	placesRouter := r.PathPrefix("/api/places").Subrouter()
	placesRouter.HandleFunc("/user/{userId}", placesHandler.GetPlacesByUser).Methods("GET", "OPTIONS")
	placesRouter.HandleFunc("/{placeId}", placesHandler.GetPlaceByID).Methods("GET", "OPTIONS")
	placesRouter.Handle("", auth(http.HandlerFunc(placesHandler.CreatePlace))).Methods("POST", "OPTIONS")
	placesRouter.Handle("/{placeId}", auth(http.HandlerFunc(placesHandler.UpdatePlace))).Methods("PATCH", "OPTIONS")
	placesRouter.Handle("/{placeId}", auth(http.HandlerFunc(placesHandler.DeletePlace))).Methods("DELETE", "OPTIONS")

	// User routes
	usersRouter := r.PathPrefix("/api/users").Subrouter()
	usersRouter.HandleFunc("", userHandler.GetUsers).Methods("GET", "OPTIONS")
	usersRouter.Handle("/signup", limit(http.HandlerFunc(authHandler.Signup))).Methods("POST", "OPTIONS")
	usersRouter.Handle("/login", limit(http.HandlerFunc(authHandler.Login))).Methods("POST", "OPTIONS")

	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.NotFoundHandler = cors(requestLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, errors.ErrNotFound.WithMessage("Could not find this route."))
	})))
	r.MethodNotAllowedHandler = cors(requestLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, errors.ErrMethodNotAllowed)
	})))
	return r
}
