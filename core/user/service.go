package user

import (
	"errors"
)

var ErrNotFound = errors.New("user not found")

type (
	Repository interface {
		CreateUser(usr User) (User, error)
		GetUserByID(id string) (User, error)
		QueryAllUsers() ([]User, error)
		// FilterUsers applies AND operation on set QueryFilter fields.
		FilterUsers(filter QueryFilter) ([]User, error)
	}

	// Service resolves identities for the record-state engines. It is a
	// lookup surface: display names and role tags, not authorization.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	now := nowFunc().UTC()
	usr := User{
		ID:        idFunc(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}

// DisplayName resolves a user id to a printable name, falling back to
// the id itself when the user is unknown. Callers use this for message
// rendering only.
func (svc *Service) DisplayName(id string) string {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return id
	}
	return usr.Name
}
