package services

import (
	"context"

	"github.com/kittygram/kittygram-api/models"
	"github.com/stretchr/testify/mock"
)

type MockCatsDB struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockCatsDB) ListCats(ctx context.Context, filter models.CatFilter) ([]models.Cat, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Cat), args.Error(1)
}

func (m *MockCatsDB) GetCat(ctx context.Context, id int64) (*models.Cat, error) {
	args := m.Called(ctx, id)
	cat, _ := args.Get(0).(*models.Cat)
	return cat, args.Error(1)
}

func (m *MockCatsDB) CreateCat(ctx context.Context, cat *models.Cat) (*models.Cat, error) {
	args := m.Called(ctx, cat)
	created, _ := args.Get(0).(*models.Cat)
	return created, args.Error(1)
}

func (m *MockCatsDB) UpdateCat(ctx context.Context, cat *models.Cat, replaceAchievements bool) (*models.Cat, error) {
	args := m.Called(ctx, cat, replaceAchievements)
	updated, _ := args.Get(0).(*models.Cat)
	return updated, args.Error(1)
}

func (m *MockCatsDB) DeleteCat(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatsDB) EnsureUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockCatsDB) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockCatsDB) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCatsDB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockCatsDB) ListAchievements(ctx context.Context, limit, offset int) ([]models.Achievement, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Achievement), args.Error(1)
}

func (m *MockCatsDB) CountAchievements(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCatsDB) GetAchievement(ctx context.Context, id int64) (*models.Achievement, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*models.Achievement)
	return a, args.Error(1)
}

func (m *MockCatsDB) CreateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	args := m.Called(ctx, a)
	created, _ := args.Get(0).(*models.Achievement)
	return created, args.Error(1)
}

func (m *MockCatsDB) UpdateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	args := m.Called(ctx, a)
	updated, _ := args.Get(0).(*models.Achievement)
	return updated, args.Error(1)
}

func (m *MockCatsDB) DeleteAchievement(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotifier) Publish(ctx context.Context, event models.ResourceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotifier) Close() {
	m.Called()
}
