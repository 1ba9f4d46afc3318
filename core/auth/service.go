package auth

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

type (
	Repository interface {
		SessionChecker
		// Login exchanges the admin password for a session token.
		Login(ctx context.Context, password string) (token string, usr Principal, err error)
		Logout(ctx context.Context, token string) error
	}

	LoginRequest struct {
		Password string `json:"password" form:"password" validate:"required"`
	}

	Service struct {
		repo Repository
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(lr)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Login(ctx context.Context, data LoginRequest) (string, Principal, error) {
	token, usr, err := svc.repo.Login(ctx, data.Password)
	if err != nil {
		return "", Principal{}, err
	}
	if token == "" {
		return "", Principal{}, errors.Wrap(core.ErrBadResponse, "login succeeded but no session was issued")
	}
	return token, usr, nil
}

// Logout ends the session on the API side; an already dead session is not an error.
func (svc *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := svc.repo.Logout(ctx, token); err != nil && !core.IsAPIStatus(err, http.StatusUnauthorized) {
		return errors.Wrap(err, "logging out")
	}
	return nil
}

func (svc *Service) CurrentUser(ctx context.Context, token string) (Principal, error) {
	return svc.repo.CurrentUser(ctx, token)
}
