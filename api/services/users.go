package services

import (
	"fmt"
	"net/http"

	"github.com/kittygram/kittygram-api/internal/permissions"
	"github.com/rs/zerolog"
)

const usersResource = "users"

// ListUsersService lists users a page at a time.
func (s *Service) ListUsersService(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if _, err := s.initial(r, s.defaultEndpoint(usersResource), permissions.List); err != nil {
		WriteErr(w, r, err)
		return
	}

	page, err := parsePage(r, s.pageSize())
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	users, err := s.DB.ListUsers(r.Context(), page.Size, page.Offset())
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to retrieve users: %w", err))
		return
	}
	logger.Info().Int("user_count", len(users)).Msg("Successfully retrieved users")

	if page.Size <= 0 {
		WriteResponse(w, http.StatusOK, users)
		return
	}

	count, err := s.DB.CountUsers(r.Context())
	if err != nil {
		WriteErr(w, r, fmt.Errorf("failed to count users: %w", err))
		return
	}

	body, err := buildPage(r, page, count, users)
	if err != nil {
		WriteErr(w, r, err)
		return
	}
	WriteResponse(w, http.StatusOK, body)
}

// RetrieveUserService returns a single user.
func (s *Service) RetrieveUserService(w http.ResponseWriter, r *http.Request) {
	if _, err := s.initial(r, s.defaultEndpoint(usersResource), permissions.Retrieve); err != nil {
		WriteErr(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	user, err := s.DB.GetUser(r.Context(), id)
	if err != nil {
		WriteErr(w, r, err)
		return
	}

	WriteResponse(w, http.StatusOK, user)
}
