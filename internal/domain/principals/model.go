package principals

import (
	"strings"
	"time"
)

// Role es un conjunto cerrado. No hay migración de rol: se fija al registrar.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleVeterinarian Role = "veterinarian"
	RoleAdmin        Role = "admin"
)

// ParseRole normaliza también las grafías heredadas ("pet_owner", "vet").
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner", "pet_owner":
		return RoleOwner, true
	case "veterinarian", "vet":
		return RoleVeterinarian, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleVeterinarian, RoleAdmin:
		return true
	default:
		return false
	}
}

// Principal es un actor autenticado con identidad estable y rol.
type Principal struct {
	ID   string
	Role Role

	Name  string
	Email string
	Phone string

	// Solo veterinarios
	Clinic         string
	License        string
	Specialization string

	CreatedAt time.Time
}

// ProfileComplete indica si el perfil tiene los datos de contacto que ve un
// veterinario con viewOwnerInfo (y, para veterinarios, los profesionales).
func (p Principal) ProfileComplete() bool {
	if p.Name == "" || p.Email == "" || p.Phone == "" {
		return false
	}
	if p.Role == RoleVeterinarian {
		return p.Clinic != "" && p.License != "" && p.Specialization != ""
	}
	return true
}

func (p Principal) IsOwner() bool        { return p.Role == RoleOwner }
func (p Principal) IsVeterinarian() bool { return p.Role == RoleVeterinarian }
