package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/repositories"
	"smarttravel/internal/utils"
)

const (
	msgAllFieldsRequired  = "All fields are required"
	msgInvalidCredentials = "Invalid Credentials"
)

// Claims is the JWT payload of a logged-in user.
type Claims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users     repositories.UserRepository
	Secret    []byte
	TTL       time.Duration
	Now       func() time.Time
	RequestID string
	// HashCost overrides bcrypt.DefaultCost.
	HashCost int
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 24 * time.Hour
}

// Signup creates an account and returns its id.
func (s AuthService) Signup(name, email, password string) (int64, error) {
	name = utils.NormalizeSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return 0, domain.ValidationError{Msg: msgAllFieldsRequired}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, domain.ValidationError{Field: "email", Msg: "invalid email address"}
	}

	cost := s.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return 0, domain.InternalError{Msg: "failed to hash password", Err: err}
	}

	id, err := s.Users.Create(name, email, string(hash))
	if err != nil {
		return 0, err
	}
	utils.LogEventf(s.RequestID, "auth", "signup", "user_id=%d", id)
	return id, nil
}

// Login checks credentials and issues a signed token.
func (s AuthService) Login(email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.User{}, "", domain.ValidationError{Msg: msgAllFieldsRequired}
	}

	user, err := s.Users.GetByEmail(email)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, "", domain.UnauthorizedError{Msg: msgInvalidCredentials}
		}
		return models.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, "", domain.UnauthorizedError{Msg: msgInvalidCredentials}
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return models.User{}, "", err
	}
	utils.LogEventf(s.RequestID, "auth", "login", "user_id=%d", user.ID)
	return user, token, nil
}

func (s AuthService) IssueToken(u models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", domain.InternalError{Msg: "failed to sign token", Err: err}
	}
	return signed, nil
}

// ParseToken validates a token and returns the caller it identifies.
func (s AuthService) ParseToken(raw string) (domain.RequestContext, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.RequestContext{}, domain.UnauthorizedError{Msg: "Session expired"}
		}
		return domain.RequestContext{}, domain.UnauthorizedError{}
	}
	if claims.UserID <= 0 {
		return domain.RequestContext{}, domain.UnauthorizedError{}
	}
	return domain.RequestContext{UserID: domain.ID(claims.UserID), Name: claims.Name, Email: claims.Email}, nil
}
