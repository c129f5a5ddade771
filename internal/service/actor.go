package service

import "github.com/google/uuid"

// Roles issued by the identity service.
const (
	RolCajero        = "cajero"
	RolSupervisor    = "supervisor"
	RolAdministrador = "administrador"
)

// Actor is the authenticated user issuing a command.
type Actor struct {
	ID  uuid.UUID
	Rol string
}

// EsSupervisor reports whether the actor may authorize movements above the
// ceiling and force-close shifts.
func (a Actor) EsSupervisor() bool {
	return a.Rol == RolSupervisor || a.Rol == RolAdministrador
}
