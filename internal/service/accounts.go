package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/models"
	"railbite/repository"
)

const minPasswordLen = 6

// AccountService registers customers and exchanges credentials for tokens.
type AccountService struct {
	store    *repository.Store
	hasher   auth.PasswordHasher
	secret   string
	tokenTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewAccountService(store *repository.Store, hasher auth.PasswordHasher, secret string, tokenTTL time.Duration, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{store: store, hasher: hasher, secret: secret, tokenTTL: tokenTTL, log: log.Named("accounts"), now: time.Now}
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Session is a signed token plus the account it belongs to.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates a customer account and signs the customer in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u, err := s.createUser(ctx, in.Name, in.Email, in.Phone, in.Password, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.log.Info("customer registered", zap.Int64("user_id", u.ID))
	return s.session(u)
}

// Login verifies credentials. Unknown emails and wrong passwords fail identically.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.store.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.hasher.Compare(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Me returns the caller's account.
func (s *AccountService) Me(ctx context.Context, actor auth.Principal) (*models.User, error) {
	u, err := s.store.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account if the email is not yet registered.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" {
		return nil
	}
	existing, err := s.store.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			s.log.Warn("bootstrap admin email belongs to a non-admin account", zap.String("email", existing.Email))
		}
		return nil
	}
	u, err := s.createUser(ctx, name, email, "", password, models.RoleAdmin)
	if err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", zap.Int64("user_id", u.ID))
	return nil
}

func (s *AccountService) createUser(ctx context.Context, name, email, phone, password string, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, Validation("invalid email address")
	}
	if len(password) < minPasswordLen {
		return nil, Validation("password must be at least %d characters", minPasswordLen)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *AccountService) session(u *models.User) (*Session, error) {
	now := s.now()
	tok, err := auth.IssueToken(s.secret, auth.Principal{UserID: u.ID, Name: u.Name, Role: u.Role}, s.tokenTTL, now)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: now.Add(s.tokenTTL), User: u}, nil
}
