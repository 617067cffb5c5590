// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"fmt"
	"strings"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is the fixed set of directory roles. The wire value is the upper-case
// name used by the directory service.
type Role string

const (
	RoleAdministrator Role = "ADMIN"
	RoleProfessor     Role = "PROFESSOR"
	RoleParent        Role = "PARENT"
	RoleStudent       Role = "STUDENT"
)

// lookupRoles is the selector order. Administrators are excluded from lookup.
var lookupRoles = []Role{RoleStudent, RoleProfessor, RoleParent}

// LookupRoles returns the roles an operator can look up, in selector order.
func LookupRoles() []Role {
	out := make([]Role, len(lookupRoles))
	copy(out, lookupRoles)
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleProfessor, RoleParent, RoleStudent:
		return true
	}
	return false
}

// Lookupable reports whether r can be used for a single-identifier lookup.
func (r Role) Lookupable() bool {
	for _, lr := range lookupRoles {
		if r == lr {
			return true
		}
	}
	return false
}

// Label returns the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleProfessor:
		return "Professor"
	case RoleParent:
		return "Parent"
	case RoleAdministrator:
		return "Administrator"
	}
	return string(r)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively. Both the wire value and the
// label are accepted ("student", "STUDENT", "admin", "administrator").
func ParseRole(s string) (Role, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "ADMINISTRATOR" {
		v = string(RoleAdministrator)
	}
	r := Role(v)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (want one of: student, professor, parent, admin)", s)
	}
	return r, nil
}

// =============================================================================
// USER RECORD
// =============================================================================

// UserRecord is one directory entry. Identifier and Role never change after
// creation; everything else can be patched.
//
// The optional attributes are only meaningful for some roles. Their presence
// is not enforced and renderers skip empty ones.
type UserRecord struct {
	Identifier  string `json:"cpf" yaml:"identifier"`
	DisplayName string `json:"name" yaml:"name"`
	Email       string `json:"email" yaml:"email"`
	Role        Role   `json:"role" yaml:"role"`
	Active      bool   `json:"active" yaml:"active"`

	// BirthDate is meaningful for STUDENT and PROFESSOR.
	BirthDate string `json:"birthDate,omitempty" yaml:"birth_date,omitempty"`
	// Phone is meaningful for PARENT and PROFESSOR.
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
	// Address is meaningful for PARENT and STUDENT.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Registration is meaningful for STUDENT.
	Registration string `json:"registration,omitempty" yaml:"registration,omitempty"`
	// LinkedStudent is meaningful for PARENT: the identifier of their student.
	LinkedStudent string `json:"studentCPF,omitempty" yaml:"linked_student,omitempty"`
	// LinkedParent is meaningful for STUDENT: the identifier of their parent.
	LinkedParent string `json:"parentCPF,omitempty" yaml:"linked_parent,omitempty"`
	// ExpertiseArea is meaningful for PROFESSOR.
	ExpertiseArea string `json:"expertiseArea,omitempty" yaml:"expertise_area,omitempty"`
	// AcademicTitle is meaningful for PROFESSOR.
	AcademicTitle string `json:"academicTitle,omitempty" yaml:"academic_title,omitempty"`
}

// Field is a named, displayable record attribute.
type Field struct {
	Key   string
	Label string
	Value string
}

// OptionalFields returns the role-conditional attributes that apply to the
// record's role, in display order. Empty values are included so edit forms
// can offer them; viewers should skip them.
func (u UserRecord) OptionalFields() []Field {
	all := map[string]Field{
		"birth_date":     {Key: "birth_date", Label: "Birth date", Value: u.BirthDate},
		"phone":          {Key: "phone", Label: "Phone", Value: u.Phone},
		"address":        {Key: "address", Label: "Address", Value: u.Address},
		"registration":   {Key: "registration", Label: "Registration", Value: u.Registration},
		"linked_student": {Key: "linked_student", Label: "Student", Value: u.LinkedStudent},
		"linked_parent":  {Key: "linked_parent", Label: "Parent", Value: u.LinkedParent},
		"expertise_area": {Key: "expertise_area", Label: "Expertise", Value: u.ExpertiseArea},
		"academic_title": {Key: "academic_title", Label: "Title", Value: u.AcademicTitle},
	}

	var keys []string
	switch u.Role {
	case RoleStudent:
		keys = []string{"birth_date", "registration", "address", "linked_parent"}
	case RoleProfessor:
		keys = []string{"birth_date", "phone", "expertise_area", "academic_title"}
	case RoleParent:
		keys = []string{"phone", "address", "linked_student"}
	}

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, all[k])
	}
	return fields
}

// SetField sets a mutable text attribute by key: "name", "email" or one of
// the OptionalFields keys. It reports whether the key is known.
func (u *UserRecord) SetField(key, value string) bool {
	switch key {
	case "name":
		u.DisplayName = value
	case "email":
		u.Email = value
	case "birth_date":
		u.BirthDate = value
	case "phone":
		u.Phone = value
	case "address":
		u.Address = value
	case "registration":
		u.Registration = value
	case "linked_student":
		u.LinkedStudent = value
	case "linked_parent":
		u.LinkedParent = value
	case "expertise_area":
		u.ExpertiseArea = value
	case "academic_title":
		u.AcademicTitle = value
	default:
		return false
	}
	return true
}

// =============================================================================
// PATCH
// =============================================================================

// Patch is a partial update. Nil fields are left untouched. Identifier and
// Role are deliberately absent: they cannot be changed through an update.
type Patch struct {
	DisplayName   *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Active        *bool   `json:"active,omitempty"`
	BirthDate     *string `json:"birthDate,omitempty" validate:"omitempty,max=32"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Registration  *string `json:"registration,omitempty" validate:"omitempty,max=32"`
	LinkedStudent *string `json:"studentCPF,omitempty" validate:"omitempty,numeric,max=20"`
	LinkedParent  *string `json:"parentCPF,omitempty" validate:"omitempty,numeric,max=20"`
	ExpertiseArea *string `json:"expertiseArea,omitempty" validate:"omitempty,max=120"`
	AcademicTitle *string `json:"academicTitle,omitempty" validate:"omitempty,max=120"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply returns a copy of rec with the patch applied.
func (p Patch) Apply(rec UserRecord) UserRecord {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&rec.DisplayName, p.DisplayName)
	set(&rec.Email, p.Email)
	if p.Active != nil {
		rec.Active = *p.Active
	}
	set(&rec.BirthDate, p.BirthDate)
	set(&rec.Phone, p.Phone)
	set(&rec.Address, p.Address)
	set(&rec.Registration, p.Registration)
	set(&rec.LinkedStudent, p.LinkedStudent)
	set(&rec.LinkedParent, p.LinkedParent)
	set(&rec.ExpertiseArea, p.ExpertiseArea)
	set(&rec.AcademicTitle, p.AcademicTitle)
	return rec
}

// Diff builds the patch that turns original into draft, carrying only the
// mutable fields that differ. Differences in Identifier or Role are ignored.
func Diff(original, draft UserRecord) Patch {
	var p Patch
	str := func(a, b string) *string {
		if a == b {
			return nil
		}
		v := b
		return &v
	}
	p.DisplayName = str(original.DisplayName, draft.DisplayName)
	p.Email = str(original.Email, draft.Email)
	if original.Active != draft.Active {
		v := draft.Active
		p.Active = &v
	}
	p.BirthDate = str(original.BirthDate, draft.BirthDate)
	p.Phone = str(original.Phone, draft.Phone)
	p.Address = str(original.Address, draft.Address)
	p.Registration = str(original.Registration, draft.Registration)
	p.LinkedStudent = str(original.LinkedStudent, draft.LinkedStudent)
	p.LinkedParent = str(original.LinkedParent, draft.LinkedParent)
	p.ExpertiseArea = str(original.ExpertiseArea, draft.ExpertiseArea)
	p.AcademicTitle = str(original.AcademicTitle, draft.AcademicTitle)
	return p
}

// CloneRecords returns a copy of records. UserRecord has no reference fields,
// so a slice copy is a deep copy.
func CloneRecords(records []UserRecord) []UserRecord {
	if records == nil {
		return nil
	}
	out := make([]UserRecord, len(records))
	copy(out, records)
	return out
}
