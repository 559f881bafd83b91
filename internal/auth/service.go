package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

var (
	// ErrDuplicateEmail is returned when registering with an email that already exists.
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRegistration = errors.New("invalid registration")
)

const tokenTTL = 24 * time.Hour

// ContractorProfile is the extra registration data of a contractor.
type ContractorProfile struct {
	Location    string             `json:"location" validate:"max=200"`
	Skills      []string           `json:"skills" validate:"required,min=1,dive,required,max=64"`
	RatePerAcre map[string]float64 `json:"rate_per_acre" validate:"dive,keys,required,endkeys,gte=0"`
}

// RegisterInput is a self-service signup. Admins are provisioned out of band.
type RegisterInput struct {
	Email      string             `json:"email" validate:"required,email"`
	Password   string             `json:"password" validate:"required,min=8,max=72"`
	Name       string             `json:"name" validate:"required,max=120"`
	Role       string             `json:"role" validate:"required"`
	Contractor *ContractorProfile `json:"contractor,omitempty" validate:"-"`
}

// UserStore is the persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User, profile *ContractorProfile) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (models.Actor, error)
}

type service struct {
	repo     UserStore
	secret   []byte
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo UserStore, secret string) *service {
	return &service{repo: repo, secret: []byte(secret), validate: validator.New(), now: time.Now}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Role != models.RoleLandowner && in.Role != models.RoleContractor {
		return nil, ErrInvalidRole
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	var profile *ContractorProfile
	if in.Role == models.RoleContractor {
		if in.Contractor == nil {
			return nil, fmt.Errorf("%w: contractor profile is required", ErrInvalidRegistration)
		}
		if err := s.validate.Struct(in.Contractor); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
		}
		profile = in.Contractor
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: in.Email, Name: in.Name, Role: in.Role, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u, profile); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(u.ID, u.Role)
}

func (s *service) issueToken(userID uuid.UUID, role string) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (models.Actor, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return models.Actor{}, ErrInvalidToken
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	switch c.Role {
	case models.RoleLandowner, models.RoleContractor, models.RoleAdmin:
	default:
		return models.Actor{}, fmt.Errorf("%w: unknown role", ErrInvalidToken)
	}
	return models.Actor{ID: id, Role: c.Role}, nil
}
