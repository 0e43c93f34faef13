package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"max=20"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username" binding:"max=255"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"max=20"`
	Password string `json:"password" binding:"omitempty,min=8"`
	Role     string `json:"role"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	DeletedAt *string   `json:"deleted_at,omitempty"`
}

// TokenConfig signs the access tokens handed out on login
type TokenConfig struct {
	Secret     string
	Expiration time.Duration
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Lifecycle
	CreateUser(ctx context.Context, userID string, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, role string, p pagination.Params) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, userID, id string, req UpdateUserRequest) (*UserResponse, error)
	// EnsureAdmin creates the first administrator when the users table is empty
	EnsureAdmin(ctx context.Context, email, password string) error
}

type userService struct {
	lifecycle[model.User]
	repo     repository.UserRepository
	roleRepo repository.RoleRepository
	tokens   TokenConfig
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	tokens TokenConfig,
) UserService {
	return &userService{
		lifecycle: lifecycle[model.User]{
			entity:    "user",
			repo:      repo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			name:      func(u *model.User) string { return u.Username },
		},
		repo:     repo,
		roleRepo: roleRepo,
		tokens:   tokens,
	}
}

// Helper: check the role exists
func (s *userService) validateRole(ctx context.Context, role string) error {
	if _, err := s.roleRepo.FindByName(ctx, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldError("role", fmt.Sprintf("role %q does not exist", role))
		}
		return err
	}
	return nil
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.DeletedAt.Valid {
		deleted := user.DeletedAt.Time.Format(time.RFC3339)
		resp.DeletedAt = &deleted
	}
	return resp
}

func (s *userService) CreateUser(ctx context.Context, userID string, req CreateUserRequest) (*UserResponse, error) {
	if err := s.validateRole(ctx, req.Role); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fieldError("email", "must be a valid email address")
	}
	if len(req.Password) < 8 {
		return nil, fieldError("password", "must be at least 8 characters")
	}

	// Double check username/email uniqueness to report the right field
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fieldError("username", "The username has already been taken.")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fieldError("email", "The email has already been taken.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     req.Role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, s.entity, user.ID, user.Username, mapToResponse(user))
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokens.Expiration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, role string, p pagination.Params) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, role, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID, id string, req UpdateUserRequest) (*UserResponse, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}

	if req.Role != "" {
		if err := s.validateRole(ctx, req.Role); err != nil {
			return nil, err
		}
		user.Role = req.Role
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, fieldError("username", "The username has already been taken.")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, fieldError("email", "The email has already been taken.")
		}
		user.Email = req.Email
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, s.entity, user.ID, user.Username, mapToResponse(user))
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = s.CreateUser(ctx, "", CreateUserRequest{
		Username: "admin",
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	return err
}
