package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesOther:
		return true
	}
	return false
}

// Pet es el perfil mínimo que necesita el workflow de placement:
// quién es el dueño y qué mostrar en las cards.
type Pet struct {
	ID          string
	OwnerUserID string

	Name      string
	Species   Species
	Breed     string
	BirthDate *time.Time
	City      string
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
