package models

// Cat represents a cat and the achievements linked to it.
type Cat struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name" validate:"required,max=16"`
	Color        string        `json:"color" validate:"required,max=16"`
	BirthYear    int           `json:"birth_year" validate:"required"`
	Owner        string        `json:"owner"`
	OwnerID      int64         `json:"-"`
	Achievements []Achievement `json:"achievements" validate:"dive"`
	Age          int           `json:"age"`
}

// CatPatch carries the fields of a partial cat update. Nil fields are left unchanged.
type CatPatch struct {
	Name         *string        `json:"name" validate:"omitempty,min=1,max=16"`
	Color        *string        `json:"color" validate:"omitempty,min=1,max=16"`
	BirthYear    *int           `json:"birth_year"`
	Achievements *[]Achievement `json:"achievements" validate:"omitempty,dive"`
}

// OwnerName returns the username of the cat's owner.
func (c *Cat) OwnerName() string {
	return c.Owner
}

// CatFilter holds the query options for listing cats.
type CatFilter struct {
	Color     *string
	BirthYear *int
	Search    []string
	Ordering  []string
}
