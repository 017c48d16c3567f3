package handlers

import (
	"net/http"

	"github.com/kittygram/kittygram-api/api/services"
)

// ListCats godoc
// @Summary List cats
// @Description List all cats. Results are not paginated. Anonymous callers may read.
// @Tags cats
// @Produce json
// @Param color query string false "Exact color" example(black)
// @Param birth_year query int false "Exact birth year" example(2020)
// @Param search query string false "Substring of the cat name" example(Tom)
// @Param ordering query string false "name, -name, birth_year or -birth_year" example(-birth_year)
// @Success 200 {array} models.Cat
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /cats/ [get]
func ListCats(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListCatsService(w, r)
	}
}

// CreateCat godoc
// @Summary Create a cat
// @Description Create a cat owned by the caller. Any owner in the request body is ignored.
// @Tags cats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cat body models.Cat true "Cat"
// @Success 201 {object} models.Cat
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /cats/ [post]
func CreateCat(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CreateCatService(w, r)
	}
}

// GetCat godoc
// @Summary Get a cat
// @Tags cats
// @Produce json
// @Param id path int true "Cat ID"
// @Success 200 {object} models.Cat
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /cats/{id}/ [get]
func GetCat(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RetrieveCatService(w, r)
	}
}

// UpdateCat godoc
// @Summary Replace a cat
// @Description Only the owner may update a cat. When achievements are given they replace the existing ones.
// @Tags cats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cat ID"
// @Param cat body models.Cat true "Cat"
// @Success 200 {object} models.Cat
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /cats/{id}/ [put]
func UpdateCat(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UpdateCatService(w, r)
	}
}

// PatchCat godoc
// @Summary Update a cat
// @Description Only the owner may update a cat. Fields left out are unchanged.
// @Tags cats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cat ID"
// @Param cat body models.CatPatch true "Fields to change"
// @Success 200 {object} models.Cat
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /cats/{id}/ [patch]
func PatchCat(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.PartialUpdateCatService(w, r)
	}
}

// DeleteCat godoc
// @Summary Delete a cat
// @Description Only the owner may delete a cat.
// @Tags cats
// @Security BearerAuth
// @Param id path int true "Cat ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /cats/{id}/ [delete]
func DeleteCat(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DestroyCatService(w, r)
	}
}
