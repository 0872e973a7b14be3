package authz

import "pet-health-sharing/internal/domain/accessgrants"

// Action es el conjunto cerrado de operaciones sobre una mascota que pasan por el motor.
type Action string

const (
	ActionViewRecords         Action = "records:view"
	ActionCreateRecord        Action = "records:create"
	ActionUpdateRecord        Action = "records:update"
	ActionDeleteRecord        Action = "records:delete"
	ActionViewPet             Action = "pet:view"
	ActionEditPet             Action = "pet:edit"
	ActionDeletePet           Action = "pet:delete"
	ActionAddPrescription     Action = "prescriptions:add"
	ActionScheduleAppointment Action = "appointments:schedule"
)

// Actions en orden estable (tests y docs).
var Actions = []Action{
	ActionViewRecords,
	ActionCreateRecord,
	ActionUpdateRecord,
	ActionDeleteRecord,
	ActionViewPet,
	ActionEditPet,
	ActionDeletePet,
	ActionAddPrescription,
	ActionScheduleAppointment,
}

func (a Action) Valid() bool {
	_, ok := requiredPermission[a]
	return ok
}

// requiredPermission es la política completa para veterinarios.
// nil significa que ningún grant habilita la acción.
var requiredPermission = map[Action]func(accessgrants.Permissions) bool{
	ActionViewRecords:         func(p accessgrants.Permissions) bool { return p.ViewMedicalHistory },
	ActionCreateRecord:        func(p accessgrants.Permissions) bool { return p.AddMedicalRecords },
	ActionUpdateRecord:        func(p accessgrants.Permissions) bool { return p.EditMedicalRecords },
	ActionDeleteRecord:        func(p accessgrants.Permissions) bool { return p.DeleteMedicalRecords },
	ActionViewPet:             func(p accessgrants.Permissions) bool { return p.ViewOwnerInfo },
	ActionEditPet:             func(p accessgrants.Permissions) bool { return p.EditPetInfo },
	ActionDeletePet:           nil,
	ActionAddPrescription:     func(p accessgrants.Permissions) bool { return p.AddPrescriptions },
	ActionScheduleAppointment: func(p accessgrants.Permissions) bool { return p.ScheduleAppointments },
}

// Permits responde si un set de permisos habilita la acción a un veterinario.
func Permits(p accessgrants.Permissions, a Action) bool {
	check := requiredPermission[a]
	if check == nil {
		return false
	}
	return check(p)
}
