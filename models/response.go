package models

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Page is a page-number paginated list response.
type Page struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}
