package services

import (
	"context"
	"net/http"
	"time"

	"github.com/kittygram/kittygram-api/api/middleware"
	"github.com/kittygram/kittygram-api/internal/appconfig"
	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/internal/metrics"
	"github.com/kittygram/kittygram-api/internal/permissions"
	"github.com/kittygram/kittygram-api/internal/throttle"
	"github.com/kittygram/kittygram-api/models"
	"github.com/rs/zerolog"
)

// CatsDBInterface is the storage the handlers need.
type CatsDBInterface interface {
	ListCats(ctx context.Context, filter models.CatFilter) ([]models.Cat, error)
	GetCat(ctx context.Context, id int64) (*models.Cat, error)
	CreateCat(ctx context.Context, cat *models.Cat) (*models.Cat, error)
	UpdateCat(ctx context.Context, cat *models.Cat, replaceAchievements bool) (*models.Cat, error)
	DeleteCat(ctx context.Context, id int64) error

	EnsureUser(ctx context.Context, user models.User) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	ListAchievements(ctx context.Context, limit, offset int) ([]models.Achievement, error)
	CountAchievements(ctx context.Context) (int, error)
	GetAchievement(ctx context.Context, id int64) (*models.Achievement, error)
	CreateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error)
	UpdateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error)
	DeleteAchievement(ctx context.Context, id int64) error
}

// Service contains all shared dependencies for handlers.
type Service struct {
	Config    *appconfig.Config
	DB        CatsDBInterface
	Publisher events.Notifier
	Throttles *throttle.Chains
	Metrics   *metrics.Metrics
	// Now is the clock the throttles read. It defaults to time.Now.
	Now func() time.Time
}

// endpoint describes the policies of one resource collection.
type endpoint struct {
	resource    string
	permissions permissions.Selector
	throttles   throttle.Chain
	scope       string
}

func (s *Service) catsEndpoint() endpoint {
	return endpoint{
		resource:    "cats",
		permissions: permissions.CatPolicies,
		throttles:   s.Throttles.Cats,
		scope:       throttle.LowRequestScope,
	}
}

func (s *Service) defaultEndpoint(resource string) endpoint {
	return endpoint{
		resource:    resource,
		permissions: permissions.Static(permissions.IsAuthenticated{}),
		throttles:   s.Throttles.Default,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) pageSize() int {
	if s.Config == nil {
		return 0
	}
	return s.Config.Pagination.PageSize
}

// initial runs the checks every request passes before the handler body: permissions
// first, then throttles.
func (s *Service) initial(r *http.Request, ep endpoint, action permissions.Action) (permissions.Request, error) {
	req := permissions.Request{Method: r.Method, Action: action}
	if claims, ok := middleware.Claims(r.Context()); ok {
		req.User = claims.Identity()
	}

	if !permissions.Allowed(ep.permissions(action), req) {
		return req, s.denied(r.Context(), ep, req)
	}

	d := ep.throttles.Allow(r.Context(), throttle.Request{
		User:  req.User,
		IP:    throttle.ClientIP(r, s.Throttles.TrustedProxies),
		Scope: ep.scope,
		Now:   s.now(),
	})
	if !d.Allowed {
		zerolog.Ctx(r.Context()).Info().Str("throttle", d.Throttle).Dur("wait", d.Wait).Msg("request throttled")
		if s.Metrics != nil {
			s.Metrics.RecordThrottled(d.Throttle)
		}
		return req, &ThrottledError{Throttle: d.Throttle, Wait: d.Wait}
	}

	return req, nil
}

// checkObject applies the object-level policies to obj.
func (s *Service) checkObject(ctx context.Context, ep endpoint, req permissions.Request, obj permissions.Owned) error {
	if !permissions.ObjectAllowed(ep.permissions(req.Action), req, obj) {
		return s.denied(ctx, ep, req)
	}
	return nil
}

func (s *Service) denied(ctx context.Context, ep endpoint, req permissions.Request) error {
	zerolog.Ctx(ctx).Warn().Str("resource", ep.resource).Str("action", string(req.Action)).
		Str("requested_by", req.User).Msg("Access denied")
	if s.Metrics != nil {
		s.Metrics.RecordDenied(ep.resource, string(req.Action))
	}
	if !req.Authenticated() {
		return ErrNotAuthenticated
	}
	return ErrAuthorizationDenied
}

// publish sends a resource event. Failures are logged and never fail the request.
func (s *Service) publish(ctx context.Context, resource string, id int64, action, actor string) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, events.NewResourceEvent(resource, id, action, actor)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("resource", resource).Int64("id", id).Msg("Failed to publish event")
	}
}
