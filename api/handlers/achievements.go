package handlers

import (
	"net/http"

	"github.com/kittygram/kittygram-api/api/services"
)

// ListAchievements godoc
// @Summary List achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" example(1)
// @Success 200 {object} models.Page{results=[]models.Achievement}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /achievements/ [get]
func ListAchievements(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListAchievementsService(w, r)
	}
}

// CreateAchievement godoc
// @Summary Create an achievement
// @Tags achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param achievement body models.Achievement true "Achievement"
// @Success 201 {object} models.Achievement
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /achievements/ [post]
func CreateAchievement(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CreateAchievementService(w, r)
	}
}

// GetAchievement godoc
// @Summary Get an achievement
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} models.Achievement
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /achievements/{id}/ [get]
func GetAchievement(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RetrieveAchievementService(w, r)
	}
}

// UpdateAchievement godoc
// @Summary Update an achievement
// @Description PUT replaces the achievement, PATCH changes only the fields given.
// @Tags achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param achievement body models.Achievement true "Achievement"
// @Success 200 {object} models.Achievement
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /achievements/{id}/ [put]
// @Router /achievements/{id}/ [patch]
func UpdateAchievement(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UpdateAchievementService(w, r)
	}
}

// DeleteAchievement godoc
// @Summary Delete an achievement
// @Tags achievements
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /achievements/{id}/ [delete]
func DeleteAchievement(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DestroyAchievementService(w, r)
	}
}
