package models

// Achievement is a freestanding award that can be linked to cats.
type Achievement struct {
	ID   int64  `json:"id"`
	Name string `json:"achievement_name" validate:"required,max=64"`
}
