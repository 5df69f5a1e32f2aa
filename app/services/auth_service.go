package services

import (
	"errors"
	"fmt"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/pkg/auth"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response does not leak which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService issues tokens. On successful login the controller triggers
// cart consolidation with the caller's guest token (if any) — exactly once
// per login event.
type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(name, email, password string) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	user := models.User{Name: name, Email: email, Password: hash, Role: "user"}
	if err := s.users.Create(&user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, errors.New("email already registered")
		}
		return models.User{}, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns the user with a signed JWT.
func (s *AuthService) Login(email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("auth: find user: %w", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", fmt.Errorf("auth: sign token: %w", err)
	}
	return user, token, nil
}
