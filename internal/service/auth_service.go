package service

import (
	"context"
	"errors"

	"tracker/internal/model"
	"tracker/internal/phone"
	"tracker/internal/repository"
	"tracker/internal/sms"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserRequest is the admin-submitted payload for a new account.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// UserResponse mirrors a User without its password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// LoginOutcome is the result of a successful credential check. When the
// account has a phone on file, TwoFactorRequired is set and CodeDigest
// carries the hash of the code already dispatched by SMS; the session
// only becomes authenticated after the code is verified.
type LoginOutcome struct {
	Username          string
	Role              string
	TwoFactorRequired bool
	CodeDigest        string
	Warning           string
}

// AuthService covers credential checks, the 2FA step and user creation.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginOutcome, error)
	CheckCode(codeDigest, submitted string) bool
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
}

type authService struct {
	users  repository.UserRepository
	phones phone.Metadata
	sender sms.Sender
}

// NewAuthService returns a new instance of AuthService
func NewAuthService(users repository.UserRepository, phones phone.Metadata, sender sms.Sender) AuthService {
	return &authService{users: users, phones: phones, sender: sender}
}

func mapUserToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginOutcome, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// A phone on file requires the 2FA step; the attempt is aborted
	// outright when the code cannot be delivered.
	if user.Phone != nil && *user.Phone != "" {
		normalized, ok := s.phones.Normalize(*user.Phone)
		if !ok {
			return nil, &ExternalError{Op: "2FA SMS failed", Err: errors.New("user phone invalid for verification")}
		}
		code := newVerificationCode()
		if err := s.sender.Send(ctx, normalized, "Your verification code is: "+code); err != nil {
			return nil, &ExternalError{Op: "2FA SMS failed", Err: err}
		}
		return &LoginOutcome{
			Username:          user.Username,
			Role:              user.Role,
			TwoFactorRequired: true,
			CodeDigest:        digestCode(code),
		}, nil
	}

	outcome := &LoginOutcome{Username: user.Username, Role: user.Role}
	if user.Role == model.RoleAdmin {
		outcome.Warning = "Admin login without 2FA phone configured. Please set your phone."
	}
	return outcome, nil
}

// CheckCode compares a submitted 2FA code against the stored digest in
// constant time.
func (s *authService) CheckCode(codeDigest, submitted string) bool {
	return tokensEqual(codeDigest, digestCode(submitted))
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleViewer
	}
	if role != model.RoleAdmin && role != model.RoleViewer {
		return nil, &ValidationError{Messages: []string{"Role must be admin or viewer."}}
	}

	// Fast-path duplicate check for a friendly message; the unique
	// constraint below remains the authority.
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if req.Phone != "" {
		p := req.Phone
		user.Phone = &p
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return mapUserToResponse(user), nil
}
