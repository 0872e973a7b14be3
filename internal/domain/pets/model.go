package pets

import "time"

// Gender define el sexo de la mascota.
// @Enum male, female, unknown
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	default:
		return false
	}
}

// Pet representa el perfil de una mascota. OwnerID es el único dato
// que mira el motor de autorización; el resto es descriptivo.
type Pet struct {
	ID      string
	OwnerID string

	Name    string
	Species string
	Breed   string
	Gender  Gender

	BirthDate *time.Time
	Weight    *float64 // kg
	Color     string

	Allergies         []string
	ChronicConditions []string
	Notes             string

	CreatedAt time.Time
	UpdatedAt time.Time
}
