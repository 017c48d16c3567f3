package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/internal/permissions"
	"github.com/kittygram/kittygram-api/models"
	"github.com/rs/zerolog"
)

const achievementsResource = "achievements"

// achievementPatch carries the fields of a partial achievement update.
type achievementPatch struct {
	Name *string `json:"achievement_name" validate:"omitempty,min=1,max=64"`
}

func (s *Service) ListAchievementsService(w http.ResponseWriter, r *http.Request) {
	if _, err := s.initial(r, s.defaultEndpoint(achievementsResource), permissions.List); err != nil {
		WriteErr(w, r, err)
		return
	}

	page, err := parsePage(r, s.pageSize())
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	achievements, err := s.DB.ListAchievements(r.Context(), page.Size, page.Offset())
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to retrieve achievements: %w", err))
		return
	}

	if page.Size <= 0 {
		WriteResponse(w, http.StatusOK, achievements)
		return
	}

	count, err := s.DB.CountAchievements(r.Context())
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to count achievements: %w", err))
		return
	}

	body, err := buildPage(r, page, count, achievements)
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, body)
}

func (s *Service) CreateAchievementService(w http.ResponseWriter, r *http.Request) {
	req, err := s.initial(r, s.defaultEndpoint(achievementsResource), permissions.Create)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	var payload models.Achievement
	if err := decodeBody(r, &payload); err != nil {
		WriteErr(w, r, err)
		return
	}

	achievement, err := s.DB.CreateAchievement(r.Context(), &payload)
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to create achievement: %w", err))
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("achievement_id", achievement.ID).Msg("Achievement created successfully")
	s.publish(r.Context(), achievementsResource, achievement.ID, events.ActionCreated, req.User)

	location := fmt.Sprintf("%s%d/", strings.TrimSuffix(r.URL.Path, "/")+"/", achievement.ID)
	WriteResponse(w, http.StatusCreated, achievement, location)
}

func (s *Service) RetrieveAchievementService(w http.ResponseWriter, r *http.Request) {
	if _, err := s.initial(r, s.defaultEndpoint(achievementsResource), permissions.Retrieve); err != nil {
		WriteErr(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	achievement, err := s.DB.GetAchievement(r.Context(), id)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	WriteResponse(w, http.StatusOK, achievement)
}

// UpdateAchievementService handles both PUT and PATCH; an achievement has a single writable field.
func (s *Service) UpdateAchievementService(w http.ResponseWriter, r *http.Request) {
	action := permissions.Update
	if r.Method == http.MethodPatch {
		action = permissions.PartialUpdate
	}

	req, err := s.initial(r, s.defaultEndpoint(achievementsResource), action)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	achievement, err := s.DB.GetAchievement(r.Context(), id)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	if action == permissions.PartialUpdate {
		var patch achievementPatch
		if err := decodeBody(r, &patch); err != nil {
			WriteErr(w, r, err)
			return
		}
		if patch.Name != nil {
			achievement.Name = *patch.Name
		}
	} else {
		var payload models.Achievement
		if err := decodeBody(r, &payload); err != nil {
			WriteErr(w, r, err)
			return
		}
		achievement.Name = payload.Name
	}

	updated, err := s.DB.UpdateAchievement(r.Context(), achievement)
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to update achievement: %w", err))
		return
	}

	s.publish(r.Context(), achievementsResource, updated.ID, events.ActionUpdated, req.User)
	WriteResponse(w, http.StatusOK, updated)
}

func (s *Service) DestroyAchievementService(w http.ResponseWriter, r *http.Request) {
	req, err := s.initial(r, s.defaultEndpoint(achievementsResource), permissions.Destroy)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	if err := s.DB.DeleteAchievement(r.Context(), id); err != nil {
		WriteErr(w, r, fmt.Errorf("failed to delete achievement: %w", err))
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("achievement_id", id).Msg("Achievement deleted successfully")
	s.publish(r.Context(), achievementsResource, id, events.ActionDeleted, req.User)
	WriteResponse(w, http.StatusNoContent, nil)
}
