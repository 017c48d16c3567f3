package services

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kittygram/kittygram-api/api/middleware"
	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/internal/permissions"
	"github.com/kittygram/kittygram-api/models"
	"github.com/rs/zerolog"
)

const catsResource = "cats"

// defaultCatOrdering applies when the request names no valid ordering field.
var defaultCatOrdering = []string{"birth_year"}

var catOrderingFields = map[string]bool{"name": true, "birth_year": true}

// parseCatFilter reads the filter, search and ordering query parameters.
func parseCatFilter(q url.Values) (models.CatFilter, error) {
	var filter models.CatFilter

	if color := q.Get("color"); color != "" {
		filter.Color = &color
	}

	if raw := q.Get("birth_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fieldError("birth_year", "Enter a number.")
		}
		filter.BirthYear = &year
	}

	// Every whitespace or comma separated term must match
	filter.Search = strings.FieldsFunc(q.Get("search"), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	for _, field := range strings.Split(q.Get("ordering"), ",") {
		field = strings.TrimSpace(field)
		if catOrderingFields[strings.TrimPrefix(field, "-")] {
			filter.Ordering = append(filter.Ordering, field)
		}
	}
	if len(filter.Ordering) == 0 {
		filter.Ordering = defaultCatOrdering
	}

	return filter, nil
}

// ListCatsService lists cats. Cats are never paginated.
func (s *Service) ListCatsService(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if _, err := s.initial(r, s.catsEndpoint(), permissions.List); err != nil {
		WriteErr(w, r, err)
		return
	}

	filter, err := parseCatFilter(r.URL.Query())
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	cats, err := s.DB.ListCats(r.Context(), filter)
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to retrieve cats: %w", err))
		return
	}

	logger.Info().Int("cat_count", len(cats)).Msg("Successfully retrieved cats")
	WriteResponse(w, http.StatusOK, cats)
}

// CreateCatService creates a cat owned by the authenticated user. Any owner in the payload is ignored.
func (s *Service) CreateCatService(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	req, err := s.initial(r, s.catsEndpoint(), permissions.Create)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	var payload models.Cat
	if err := decodeBody(r, &payload); err != nil {
		WriteErr(w, r, err)
		return
	}

	// The owner is always the caller
	claims, _ := middleware.Claims(r.Context())
	owner, err := s.DB.EnsureUser(r.Context(), models.User{
		Username:  req.User,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Email:     claims.Email,
	})
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to resolve owner: %w", err))
		return
	}
	payload.ID = 0
	payload.OwnerID = owner.ID
	payload.Owner = owner.Username

	cat, err := s.DB.CreateCat(r.Context(), &payload)
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to create cat: %w", err))
		return
	}

	logger.Info().Int64("cat_id", cat.ID).Str("owner", cat.Owner).Msg("Cat created successfully")
	s.publish(r.Context(), catsResource, cat.ID, events.ActionCreated, req.User)

	location := fmt.Sprintf("%s%d/", strings.TrimSuffix(r.URL.Path, "/")+"/", cat.ID)
	WriteResponse(w, http.StatusCreated, cat, location)
}

// RetrieveCatService returns a single cat. Anyone may read it.
func (s *Service) RetrieveCatService(w http.ResponseWriter, r *http.Request) {
	ep := s.catsEndpoint()
	req, err := s.initial(r, ep, permissions.Retrieve)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	cat, err := s.getCat(r, ep, req)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	WriteResponse(w, http.StatusOK, cat)
}

// UpdateCatService replaces a cat's fields. Only the owner may update it.
func (s *Service) UpdateCatService(w http.ResponseWriter, r *http.Request) {
	ep := s.catsEndpoint()
	req, err := s.initial(r, ep, permissions.Update)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	cat, err := s.getCat(r, ep, req)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	var payload models.Cat
	if err := decodeBody(r, &payload); err != nil {
		WriteErr(w, r, err)
		return
	}

	cat.Name = payload.Name
	cat.Color = payload.Color
	cat.BirthYear = payload.BirthYear
	replace := payload.Achievements != nil
	if replace {
		cat.Achievements = payload.Achievements
	}

	s.saveCat(w, r, req, cat, replace)
}

// PartialUpdateCatService changes the supplied fields of a cat. Only the owner may update it.
func (s *Service) PartialUpdateCatService(w http.ResponseWriter, r *http.Request) {
	ep := s.catsEndpoint()
	req, err := s.initial(r, ep, permissions.PartialUpdate)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	cat, err := s.getCat(r, ep, req)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	var patch models.CatPatch
	if err := decodeBody(r, &patch); err != nil {
		WriteErr(w, r, err)
		return
	}

	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	if patch.Color != nil {
		cat.Color = *patch.Color
	}
	if patch.BirthYear != nil {
		cat.BirthYear = *patch.BirthYear
	}
	replace := patch.Achievements != nil
	if replace {
		cat.Achievements = *patch.Achievements
	}

	s.saveCat(w, r, req, cat, replace)
}

func (s *Service) saveCat(w http.ResponseWriter, r *http.Request, req permissions.Request, cat *models.Cat, replaceAchievements bool) {
	updated, err := s.DB.UpdateCat(r.Context(), cat, replaceAchievements)
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to update cat: %w", err))
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("cat_id", updated.ID).Msg("Cat updated successfully")
	s.publish(r.Context(), catsResource, updated.ID, events.ActionUpdated, req.User)
	WriteResponse(w, http.StatusOK, updated)
}

// DestroyCatService deletes a cat. Only the owner may delete it.
func (s *Service) DestroyCatService(w http.ResponseWriter, r *http.Request) {
	ep := s.catsEndpoint()
	req, err := s.initial(r, ep, permissions.Destroy)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	cat, err := s.getCat(r, ep, req)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	if err := s.DB.DeleteCat(r.Context(), cat.ID); err != nil {
		WriteErr(w, r, fmt.Errorf("failed to delete cat: %w", err))
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("cat_id", cat.ID).Msg("Cat deleted successfully")
	s.publish(r.Context(), catsResource, cat.ID, events.ActionDeleted, req.User)
	WriteResponse(w, http.StatusNoContent, nil)
}

// getCat loads the cat named by the route and applies the object permissions.
func (s *Service) getCat(r *http.Request, ep endpoint, req permissions.Request) (*models.Cat, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}

	cat, err := s.DB.GetCat(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if err := s.checkObject(r.Context(), ep, req, cat); err != nil {
		return nil, err
	}
	return cat, nil
}
