package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/darasa/core"
)

// Roles. A user has exactly one role; behavior differences between roles
// are data, expressed through the capability table below rather than
// type hierarchies.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin}

// Capability flags gate what a role may do. They tag intent only; real
// authorization enforcement lives outside this core.
type Capability uint8

const (
	CapSubmitWork Capability = 1 << iota
	CapGradeWork
	CapManageSchedule
	CapViewChildRecords
	CapManageUsers
)

var roleCapabilities = map[Role]Capability{
	RoleStudent: CapSubmitWork,
	RoleTeacher: CapGradeWork | CapManageSchedule,
	RoleParent:  CapViewChildRecords,
	RoleAdmin:   CapGradeWork | CapManageSchedule | CapViewChildRecords | CapManageUsers,
}

func (r Role) valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) Can(c Capability) bool {
	return roleCapabilities[u.Role]&c == c
}

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsParent() bool  { return u.Role == RoleParent }
func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"omitempty,min=3"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true)
	nu.Email = core.CleanString(nu.Email, true)
	return core.Validate.Struct(nu)
}

// QueryFilter applies AND semantics on set fields.
type QueryFilter struct {
	Role     Role
	IsActive *bool
}

// injection points for tests
var (
	nowFunc = time.Now
	idFunc  = uuid.NewString
)
