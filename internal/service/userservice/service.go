package userservice

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/token"
	"stockledger/internal/pkg/validation"
)

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc token.TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc token.TokenService, logger logger.Logger) *UserService {
	return &UserService{UserRepo: repo, TokenSvc: tokenSvc, logger: logger}
}

// Register registra um novo usuário no sistema com o papel guest.
// Um administrador promove o usuário depois via SetRole.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	registration.Email = strings.ToLower(strings.TrimSpace(registration.Email))
	if err := validation.Struct(registration); err != nil {
		return domain.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	user, err := s.UserRepo.Save(ctx, domain.User{
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleGuest,
		Name:         registration.Name,
		CompanyName:  registration.CompanyName,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound vira 401 para não revelar quais emails existem.
		if apperror.IsNotFound(err) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Senha incorreta no login.", map[string]interface{}{"user_id": user.ID})
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return tokenString, nil
}

// SetRole troca o papel de um usuário.
func (s *UserService) SetRole(ctx context.Context, id string, role domain.UserRole) (domain.User, error) {
	if err := validation.Struct(domain.RoleChange{Role: role}); err != nil {
		return domain.User{}, err
	}
	return s.UserRepo.UpdateRole(ctx, id, role)
}

// EnsureAdmin garante que o email configurado exista com papel admin.
// Cria o usuário quando ausente e promove quando já existe com outro papel.
func (s *UserService) EnsureAdmin(ctx context.Context, email string, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.UserRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			return nil
		}
		_, err = s.UserRepo.UpdateRole(ctx, existing.ID, domain.RoleAdmin)
		if err == nil {
			s.logger.Info("Usuário promovido a administrador.", map[string]interface{}{"user_id": existing.ID})
		}
		return err
	case !apperror.IsNotFound(err):
		return err
	}

	user, err := s.Register(ctx, domain.UserRegistration{Email: email, Password: password, Name: "Administrator"})
	if err != nil {
		return err
	}
	_, err = s.UserRepo.UpdateRole(ctx, user.ID, domain.RoleAdmin)
	return err
}
