package domain

import (
	"strings"
	"time"
)

type Employee struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Phone         string    `json:"phone"`
	Role          Role      `json:"role"`
	Active        bool      `json:"active"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	SecondSurname string    `json:"secondSurname,omitempty"`
	Email         string    `json:"email,omitempty"`
	Neighborhood  string    `json:"neighborhood,omitempty"`
	Street        string    `json:"street,omitempty"`
	ExteriorNo    string    `json:"exteriorNo,omitempty"`
	Picture       []byte    `json:"-"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

// EmployeeProfile holds the editable fields; empty values leave the current value untouched.
type EmployeeProfile struct {
	FirstName     string `json:"nombre" form:"nombre"`
	LastName      string `json:"apellidoP" form:"apellidoP"`
	SecondSurname string `json:"apellidoM" form:"apellidoM"`
	Email         string `json:"email" form:"email"`
	Phone         string `json:"telefono" form:"telefono"`
	Neighborhood  string `json:"colonia" form:"colonia"`
	Street        string `json:"calle" form:"calle"`
	ExteriorNo    string `json:"no_exterior" form:"no_exterior"`
}

func (e *Employee) ApplyProfile(p EmployeeProfile) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&e.FirstName, p.FirstName)
	set(&e.LastName, p.LastName)
	set(&e.SecondSurname, p.SecondSurname)
	set(&e.Email, p.Email)
	set(&e.Phone, p.Phone)
	set(&e.Neighborhood, p.Neighborhood)
	set(&e.Street, p.Street)
	set(&e.ExteriorNo, p.ExteriorNo)
}

func (e *Employee) HasPicture() bool {
	return len(e.Picture) > 0
}

func (e *Employee) Actor() Actor {
	return Actor{EmployeeID: e.ID, Username: e.Username, Role: e.Role}
}
