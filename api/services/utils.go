package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/kittygram/kittygram-api/db"
	"github.com/kittygram/kittygram-api/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func WriteResponse(w http.ResponseWriter, statusCode int, response interface{}, location ...string) {

	w.Header().Set("Content-Type", "application/json")

	// We don't want to cache API responses so the client receives most curent data
	w.Header().Set("Cache-Control", "max-age=0")

	// Conditionally set the Location header if provided
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return // **Return immediately to avoid multiple WriteHeader calls**
		}
	}
}

// decodeBody decodes the JSON request body into v and validates it.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ValidationError{Fields: map[string]string{"non_field_errors": fmt.Sprintf("Invalid JSON: %v", err)}}
	}
	if err := validate.Struct(v); err != nil {
		return validationFields(err)
	}
	return nil
}

// pathID parses the {id} route variable. Ids that are not positive integers match nothing.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, db.ErrNotFound
	}
	return id, nil
}

// pageRequest is the slice of a collection requested with ?page=N.
type pageRequest struct {
	Number int
	Size   int
}

func (p pageRequest) Offset() int {
	return (p.Number - 1) * p.Size
}

// parsePage reads the page number. A size of zero disables pagination.
func parsePage(r *http.Request, size int) (pageRequest, error) {
	p := pageRequest{Number: 1, Size: size}
	if size <= 0 {
		return p, nil
	}
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return p, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return p, ErrInvalidPage
	}
	p.Number = n
	return p, nil
}

// buildPage wraps results with the total count and links to the neighbouring pages.
func buildPage(r *http.Request, p pageRequest, count int, results interface{}) (models.Page, error) {
	pages := 1
	if count > 0 {
		pages = (count + p.Size - 1) / p.Size
	}
	if p.Number > pages {
		return models.Page{}, ErrInvalidPage
	}

	page := models.Page{Count: count, Results: results}
	if p.Number < pages {
		next := pageURL(r, p.Number+1)
		page.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(r, p.Number-1)
		page.Previous = &prev
	}
	return page, nil
}

func pageURL(r *http.Request, n int) string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := r.URL.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
