package models

// User represents an identity known to the API.
type User struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"-"`
	Cats      []string `json:"cats"`
}
