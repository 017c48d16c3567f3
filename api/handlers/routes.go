package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kittygram/kittygram-api/api/services"
)

const idPath = "/{id:[0-9]+}/"

// RegisterRoutes adds the cats, users and achievements routes to api.
func RegisterRoutes(api *mux.Router, svc *services.Service) {
	// Cat routes
	api.HandleFunc("/cats/", ListCats(svc)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/cats/", CreateCat(svc)).Methods(http.MethodPost)
	api.HandleFunc("/cats"+idPath, GetCat(svc)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/cats"+idPath, UpdateCat(svc)).Methods(http.MethodPut)
	api.HandleFunc("/cats"+idPath, PatchCat(svc)).Methods(http.MethodPatch)
	api.HandleFunc("/cats"+idPath, DeleteCat(svc)).Methods(http.MethodDelete)

	// User routes
	api.HandleFunc("/users/", ListUsers(svc)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/users"+idPath, GetUser(svc)).Methods(http.MethodGet, http.MethodHead)

	// Achievement routes
	api.HandleFunc("/achievements/", ListAchievements(svc)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/achievements/", CreateAchievement(svc)).Methods(http.MethodPost)
	api.HandleFunc("/achievements"+idPath, GetAchievement(svc)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/achievements"+idPath, UpdateAchievement(svc)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/achievements"+idPath, DeleteAchievement(svc)).Methods(http.MethodDelete)
}
