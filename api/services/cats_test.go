package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kittygram/kittygram-api/db"
	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func aliceCat() *models.Cat {
	return &models.Cat{ID: 1, Name: "Tom", Color: "black", BirthYear: 2020, Owner: "alice", OwnerID: 7,
		Achievements: []models.Achievement{}}
}

func TestParseCatFilter(t *testing.T) {
	filter, err := parseCatFilter(url.Values{
		"color":      {"black"},
		"birth_year": {"2020"},
		"search":     {"Tom, Jerry"},
		"ordering":   {"-birth_year,owner, name"},
	})
	require.NoError(t, err)

	assert.Equal(t, "black", *filter.Color)
	assert.Equal(t, 2020, *filter.BirthYear)
	assert.Equal(t, []string{"Tom", "Jerry"}, filter.Search)
	assert.Equal(t, []string{"-birth_year", "name"}, filter.Ordering)

	filter, err = parseCatFilter(url.Values{"ordering": {"owner"}, "color": {""}})
	require.NoError(t, err)
	assert.Nil(t, filter.Color)
	assert.Nil(t, filter.BirthYear)
	assert.Empty(t, filter.Search)
	assert.Equal(t, []string{"birth_year"}, filter.Ordering, "default ordering is ascending birth year")

	_, err = parseCatFilter(url.Values{"birth_year": {"twenty"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListCatsService_Filters(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)

	cats := []models.Cat{*aliceCat()}
	mockDB.On("ListCats", mock.Anything, mock.MatchedBy(func(f models.CatFilter) bool {
		return f.Color != nil && *f.Color == "black" &&
			f.BirthYear != nil && *f.BirthYear == 2020 &&
			assert.ObjectsAreEqual([]string{"-birth_year"}, f.Ordering)
	})).Return(cats, nil).Once()

	r := httptest.NewRequest(http.MethodGet, "/cats/?color=black&birth_year=2020&ordering=-birth_year", nil)
	w := httptest.NewRecorder()
	svc.ListCatsService(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body []models.Cat
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "alice", body[0].Owner)

	mockDB.AssertExpectations(t)
}

func TestListCatsService_Search(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)

	mockDB.On("ListCats", mock.Anything, mock.MatchedBy(func(f models.CatFilter) bool {
		return assert.ObjectsAreEqual([]string{"Tom"}, f.Search)
	})).Return([]models.Cat{}, nil).Once()

	w := httptest.NewRecorder()
	svc.ListCatsService(w, httptest.NewRequest(http.MethodGet, "/cats/?search=Tom", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	mockDB.AssertExpectations(t)
}

func TestListCatsService_InvalidBirthYear(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)

	w := httptest.NewRecorder()
	svc.ListCatsService(w, httptest.NewRequest(http.MethodGet, "/cats/?birth_year=old", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "birth_year")
	mockDB.AssertNotCalled(t, "ListCats", mock.Anything, mock.Anything)
}

func TestListCatsService_OutsideWorkingHours(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	svc.Now = func() time.Time { return time.Date(2024, 5, 14, 4, 0, 0, 0, time.UTC) }

	for _, user := range []string{"", "alice", "bob"} {
		r := httptest.NewRequest(http.MethodGet, "/cats/", nil)
		if user != "" {
			r = withUser(r, user)
		}
		w := httptest.NewRecorder()
		svc.ListCatsService(w, r)

		assert.Equal(t, http.StatusTooManyRequests, w.Code, user)
		assert.Equal(t, "7200", w.Header().Get("Retry-After"), user)
	}
	mockDB.AssertNotCalled(t, "ListCats", mock.Anything, mock.Anything)
}

func TestListCatsService_OneRequestPerMinute(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("ListCats", mock.Anything, mock.Anything).Return([]models.Cat{}, nil)

	now := noon
	svc.Now = func() time.Time { return now }

	send := func(user string) int {
		w := httptest.NewRecorder()
		svc.ListCatsService(w, withUser(httptest.NewRequest(http.MethodGet, "/cats/", nil), user))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	now = noon.Add(10 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusOK, send("bob"), "other identities have their own window")

	now = noon.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, send("alice"))

	mockDB.AssertNumberOfCalls(t, "ListCats", 3)
}

func TestRetrieveCatService_Anonymous(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(1)).Return(aliceCat(), nil).Once()

	w := httptest.NewRecorder()
	svc.RetrieveCatService(w, withID(httptest.NewRequest(http.MethodGet, "/cats/1/", nil), "1"))

	assert.Equal(t, http.StatusOK, w.Code)
	var cat models.Cat
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cat))
	assert.Equal(t, "Tom", cat.Name)
	mockDB.AssertExpectations(t)
}

func TestRetrieveCatService_NotFound(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(99)).Return(nil, db.ErrNotFound).Once()

	w := httptest.NewRecorder()
	svc.RetrieveCatService(w, withID(httptest.NewRequest(http.MethodGet, "/cats/99/", nil), "99"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	svc.RetrieveCatService(w, withID(withUser(httptest.NewRequest(http.MethodGet, "/cats/abc/", nil), "alice"), "abc"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	mockDB.AssertNumberOfCalls(t, "GetCat", 1)
}

func TestCreateCatService_OwnerIsCaller(t *testing.T) {
	mockDB := new(MockCatsDB)
	notifier := new(MockNotifier)
	svc := newTestService(t, mockDB)
	svc.Publisher = notifier

	mockDB.On("EnsureUser", mock.Anything, models.User{Username: "alice"}).
		Return(&models.User{ID: 7, Username: "alice"}, nil).Once()
	mockDB.On("CreateCat", mock.Anything, mock.MatchedBy(func(c *models.Cat) bool {
		return c.OwnerID == 7 && c.Owner == "alice" && c.Name == "Tom" && len(c.Achievements) == 1
	})).Return(&models.Cat{ID: 3, Name: "Tom", Color: "black", BirthYear: 2020, Owner: "alice",
		Achievements: []models.Achievement{{ID: 5, Name: "mouser"}}}, nil).Once()
	notifier.On("Publish", mock.Anything, mock.MatchedBy(func(ev models.ResourceEvent) bool {
		return ev.Resource == "cats" && ev.ResourceID == 3 && ev.Action == events.ActionCreated && ev.Actor == "alice"
	})).Return(nil).Once()

	payload := map[string]interface{}{
		"name":         "Tom",
		"color":        "black",
		"birth_year":   2020,
		"owner":        "mallory",
		"achievements": []map[string]string{{"achievement_name": "mouser"}},
	}
	r := withUser(newRequest(t, http.MethodPost, "/cats/", payload), "alice")
	w := httptest.NewRecorder()
	svc.CreateCatService(w, r)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "/cats/3/", res.Header.Get("Location"))

	var cat models.Cat
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cat))
	assert.Equal(t, "alice", cat.Owner)

	mockDB.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCreateCatService_PublishFailureIsNotFatal(t *testing.T) {
	mockDB := new(MockCatsDB)
	notifier := new(MockNotifier)
	svc := newTestService(t, mockDB)
	svc.Publisher = notifier

	mockDB.On("EnsureUser", mock.Anything, mock.Anything).Return(&models.User{ID: 7, Username: "alice"}, nil)
	mockDB.On("CreateCat", mock.Anything, mock.Anything).Return(aliceCat(), nil)
	notifier.On("Publish", mock.Anything, mock.Anything).Return(errors.New("pulsar unavailable"))

	r := withUser(newRequest(t, http.MethodPost, "/cats/", map[string]interface{}{
		"name": "Tom", "color": "black", "birth_year": 2020,
	}), "alice")
	w := httptest.NewRecorder()
	svc.CreateCatService(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateCatService_Anonymous(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)

	w := httptest.NewRecorder()
	svc.CreateCatService(w, newRequest(t, http.MethodPost, "/cats/", map[string]interface{}{
		"name": "Tom", "color": "black", "birth_year": 2020,
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockDB.AssertNotCalled(t, "CreateCat", mock.Anything, mock.Anything)
}

func TestCreateCatService_PermissionsBeforeThrottles(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	svc.Now = func() time.Time { return time.Date(2024, 5, 14, 4, 0, 0, 0, time.UTC) }

	w := httptest.NewRecorder()
	svc.CreateCatService(w, newRequest(t, http.MethodPost, "/cats/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCatService_Invalid(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)

	r := withUser(newRequest(t, http.MethodPost, "/cats/", map[string]interface{}{
		"color": "a colour name that is far too long", "birth_year": 2020,
	}), "alice")
	w := httptest.NewRecorder()
	svc.CreateCatService(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "color")
	mockDB.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
}

func TestUpdateCatService_NonOwnerDenied(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(1)).Return(aliceCat(), nil)

	r := withID(withUser(newRequest(t, http.MethodPut, "/cats/1/", map[string]interface{}{
		"name": "Stolen", "color": "white", "birth_year": 2019,
	}), "bob"), "1")
	w := httptest.NewRecorder()
	svc.UpdateCatService(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockDB.AssertNotCalled(t, "UpdateCat", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateCatService_Owner(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(1)).Return(aliceCat(), nil)
	mockDB.On("UpdateCat", mock.Anything, mock.MatchedBy(func(c *models.Cat) bool {
		return c.ID == 1 && c.Name == "Thomas" && c.Owner == "alice"
	}), false).Return(&models.Cat{ID: 1, Name: "Thomas", Color: "grey", BirthYear: 2019, Owner: "alice"}, nil).Once()

	r := withID(withUser(newRequest(t, http.MethodPut, "/cats/1/", map[string]interface{}{
		"name": "Thomas", "color": "grey", "birth_year": 2019, "owner": "bob",
	}), "alice"), "1")
	w := httptest.NewRecorder()
	svc.UpdateCatService(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	mockDB.AssertExpectations(t)
}

func TestPartialUpdateCatService_Owner(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(1)).Return(aliceCat(), nil)
	mockDB.On("UpdateCat", mock.Anything, mock.MatchedBy(func(c *models.Cat) bool {
		return c.Name == "Tom" && c.Color == "ginger" && c.BirthYear == 2020 && len(c.Achievements) == 1
	}), true).Return(aliceCat(), nil).Once()

	r := withID(withUser(newRequest(t, http.MethodPatch, "/cats/1/", map[string]interface{}{
		"color":        "ginger",
		"achievements": []map[string]string{{"achievement_name": "napper"}},
	}), "alice"), "1")
	w := httptest.NewRecorder()
	svc.PartialUpdateCatService(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	mockDB.AssertExpectations(t)
}

func TestPartialUpdateCatService_NonOwnerDenied(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(1)).Return(aliceCat(), nil)

	r := withID(withUser(newRequest(t, http.MethodPatch, "/cats/1/", map[string]interface{}{"name": "Mine"}), "bob"), "1")
	w := httptest.NewRecorder()
	svc.PartialUpdateCatService(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDestroyCatService(t *testing.T) {
	mockDB := new(MockCatsDB)
	svc := newTestService(t, mockDB)
	mockDB.On("GetCat", mock.Anything, int64(1)).Return(aliceCat(), nil)
	mockDB.On("DeleteCat", mock.Anything, int64(1)).Return(nil).Once()

	w := httptest.NewRecorder()
	svc.DestroyCatService(w, withID(withUser(httptest.NewRequest(http.MethodDelete, "/cats/1/", nil), "bob"), "1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	svc.DestroyCatService(w, withID(httptest.NewRequest(http.MethodDelete, "/cats/1/", nil), "1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	svc.DestroyCatService(w, withID(withUser(httptest.NewRequest(http.MethodDelete, "/cats/1/", nil), "alice"), "1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	mockDB.AssertNumberOfCalls(t, "DeleteCat", 1)
}
