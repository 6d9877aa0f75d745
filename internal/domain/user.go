package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"role"`
	Name         string    `json:"name"`
	CompanyName  string    `json:"company_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
	RoleGuest    UserRole = "guest"
)

// Valid informa se o papel pertence à enumeração.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer || r == RoleGuest
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=5"`
	Name        string `json:"name" validate:"required"`
	CompanyName string `json:"company_name"`
}

// LoginRequest é o payload do login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RoleChange é o payload da troca de papel feita por um administrador.
type RoleChange struct {
	Role UserRole `json:"role" validate:"required,oneof=guest customer admin"`
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdateRole(ctx context.Context, id string, role UserRole) (User, error)
}

// UserService define o contrato de lógica de negócio para a entidade User.
type UserService interface {
	Register(ctx context.Context, registration UserRegistration) (User, error)
	Login(ctx context.Context, email string, password string) (string, error)
	SetRole(ctx context.Context, id string, role UserRole) (User, error)
	EnsureAdmin(ctx context.Context, email string, password string) error
}
