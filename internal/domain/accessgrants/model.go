package accessgrants

import "time"

// AccessLevel es informativo; la autoridad real son los Permissions.
type AccessLevel string

const (
	AccessLevelRead  AccessLevel = "read"
	AccessLevelWrite AccessLevel = "write"
)

func (l AccessLevel) Valid() bool {
	return l == AccessLevelRead || l == AccessLevelWrite
}

// Permissions es de forma fija: cada flag se activa de forma independiente.
type Permissions struct {
	ViewMedicalHistory   bool
	AddMedicalRecords    bool
	EditMedicalRecords   bool
	DeleteMedicalRecords bool
	AddPrescriptions     bool
	ScheduleAppointments bool
	EditPetInfo          bool
	ViewOwnerInfo        bool
}

// DefaultPermissions se aplica cuando el dueño no especifica permisos.
func DefaultPermissions() Permissions {
	return Permissions{
		ViewMedicalHistory: true,
		ViewOwnerInfo:      true,
	}
}

// Grant delega permisos de un dueño a un veterinario sobre una mascota.
// Nunca se borra: revocar lo deja inactivo para auditoría.
type Grant struct {
	ID string

	PetID          string
	VeterinarianID string
	GrantedByID    string

	AccessLevel AccessLevel
	Permissions Permissions

	IsRevoked   bool
	RevokedAt   *time.Time
	RevokedByID string

	Notes     string
	GrantedAt time.Time
}

func (g Grant) Active() bool { return !g.IsRevoked }

// VeterinarianGrants agrupa los grants de un mismo veterinario
// (una relación lógica, varias filas: una por mascota).
type VeterinarianGrants struct {
	VeterinarianID string
	FirstGrantedAt time.Time
	Grants         []Grant
}
