package records

import "time"

type RecordType string

const (
	RecordTypeVaccination RecordType = "vaccination"
	RecordTypeCheckup     RecordType = "checkup"
	RecordTypeMedication  RecordType = "medication"
	RecordTypeSurgery     RecordType = "surgery"
	RecordTypeLabResult   RecordType = "lab_result"
	RecordTypeOther       RecordType = "other"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeVaccination, RecordTypeCheckup, RecordTypeMedication,
		RecordTypeSurgery, RecordTypeLabResult, RecordTypeOther:
		return true
	default:
		return false
	}
}

// Attachment apunta a un archivo ya subido (PDF o imagen). El storage de
// archivos queda fuera de este servicio.
type Attachment struct {
	Filename string
	FileURL  string
	FileType string
}

type MedicalRecord struct {
	ID    string
	PetID string

	Type RecordType
	Date time.Time

	VeterinarianID string
	Notes          string
	Attachments    []Attachment

	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
