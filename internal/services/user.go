package services

import (
	"errors"
	"fmt"

	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration and credential checks
type UserService struct {
	store *store.Store
}

// NewUserService creates a new user service
func NewUserService(s *store.Store) *UserService {
	return &UserService{store: s}
}

// RegisterInput carries the fields for account creation
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=39"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

// Register creates a new account with a bcrypt-hashed password
func (s *UserService) Register(input RegisterInput) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a username/password pair
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID looks up a user by primary key
func (s *UserService) GetUserByID(id string) (*models.User, error) {
	return s.store.GetUserByID(id)
}
