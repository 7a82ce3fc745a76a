package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"uniform-studio/config"
	"uniform-studio/internal/domain/school"
	"uniform-studio/internal/repository"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	schoolRepo repository.SchoolRepository
	jwtSecret  []byte
	accessTTL  time.Duration
}

func NewAuthService(schoolRepo repository.SchoolRepository, cfg *config.Config) *AuthService {
	ttl := time.Duration(cfg.JWTExpiryMin) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		schoolRepo: schoolRepo,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  ttl,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	School      SchoolInfo `json:"school"`
}

type SchoolInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AccessClaims identify a school. Email doubles as the chat sender identity.
type AccessClaims struct {
	SchoolID string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.schoolRepo.GetByEmail(ctx, in.Email); err == nil {
		return AuthResponse{}, studio_errors.ErrAlreadyExists
	} else if !errors.Is(err, studio_errors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	now := time.Now()
	sc := &school.School{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.schoolRepo.Create(ctx, sc); err != nil {
		return AuthResponse{}, err
	}

	return s.issue(*sc)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return AuthResponse{}, studio_errors.ErrInvalidInput
	}

	sc, err := s.schoolRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, studio_errors.ErrNotFound) {
			return AuthResponse{}, studio_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	if !sc.IsActive {
		return AuthResponse{}, studio_errors.ErrForbidden
	}
	if err := comparePassword(sc.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, studio_errors.ErrUnauthorized
	}

	return s.issue(sc)
}

func (s *AuthService) Me(ctx context.Context, schoolID uuid.UUID) (SchoolInfo, error) {
	sc, err := s.schoolRepo.GetByID(ctx, schoolID)
	if err != nil {
		return SchoolInfo{}, err
	}
	return toSchoolInfo(sc), nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, studio_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, studio_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, studio_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, studio_errors.ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.SchoolID); err != nil {
		return AccessClaims{}, studio_errors.ErrUnauthorized
	}

	return *claims, nil
}

func (s *AuthService) issue(sc school.School) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		SchoolID: sc.ID.String(),
		Email:    sc.Email,
		Name:     sc.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sc.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		School:      toSchoolInfo(sc),
	}, nil
}

type ctxKey string

var schoolIDKey ctxKey = "school_id"
var schoolEmailKey ctxKey = "school_email"
var schoolNameKey ctxKey = "school_name"

func WithSchoolContext(ctx context.Context, schoolID uuid.UUID, email, name string) context.Context {
	ctx = context.WithValue(ctx, schoolIDKey, schoolID)
	ctx = context.WithValue(ctx, schoolEmailKey, email)
	ctx = context.WithValue(ctx, schoolNameKey, name)
	return ctx
}

func SchoolIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(schoolIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	schoolID, ok := value.(uuid.UUID)
	return schoolID, ok
}

// IdentityFromContext returns the chat identity of the authenticated school.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	schoolID, ok := SchoolIDFromContext(ctx)
	if !ok {
		return Identity{}, false
	}
	email, _ := ctx.Value(schoolEmailKey).(string)
	name, _ := ctx.Value(schoolNameKey).(string)
	if email == "" {
		return Identity{}, false
	}
	return Identity{SchoolID: schoolID, Email: email, Name: name}, true
}

func validateRegister(in RegisterInput) error {
	if in.Email == "" || in.Name == "" || in.Password == "" {
		return studio_errors.ErrInvalidInput
	}
	if !strings.Contains(in.Email, "@") {
		return studio_errors.ErrInvalidInput
	}
	if len(in.Password) < 8 {
		return studio_errors.ErrInvalidInput
	}
	return nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func toSchoolInfo(sc school.School) SchoolInfo {
	return SchoolInfo{
		ID:    sc.ID.String(),
		Email: sc.Email,
		Name:  sc.Name,
	}
}
