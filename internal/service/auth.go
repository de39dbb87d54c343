package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/devdeck/internal/access"
	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/security"
)

type LoginResult struct {
	Token string           `json:"token"`
	User  user.PrivateView `json:"user"`
}

type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAuthService(users UserRepository, tokens TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

var errInvalidCredentials = apperr.Unauthorized("invalid_credentials", "invalid email or password")

// Login checks credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (LoginResult, error) {
	if err := authorize(access.Anonymous(), access.ActionLogin, access.Resource{}); err != nil {
		return LoginResult{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, errInvalidCredentials
		}
		return LoginResult{}, internal(err)
	}

	if !security.Matches(u.PasswordHash, req.Password) {
		s.log.InfoContext(ctx, "login failed", "user_id", u.ID)
		return LoginResult{}, errInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, internal(err)
	}

	return LoginResult{Token: token, User: user.Private(u)}, nil
}
