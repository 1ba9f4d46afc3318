package apiclient

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
)

// Login posts the admin password. The token is taken from the session cookie,
// or from the `token` field when the API sends it in the body.
func (c *Client) Login(ctx context.Context, password string) (string, auth.Principal, error) {
	var out struct {
		Token string `json:"token"`
		User  string `json:"user"`
	}
	res, err := c.do(ctx, rest.Post, pathLogin, map[string]string{"password": password}, &out)
	if err != nil {
		if core.IsAPIStatus(err, http.StatusUnauthorized) {
			return "", auth.Principal{}, core.NewAPIError(http.StatusUnauthorized, "invalid password")
		}
		return "", auth.Principal{}, err
	}

	token := sessionCookie(res)
	if token == "" {
		token = out.Token
	}
	return token, auth.Principal{Name: out.User}, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (auth.Principal, error) {
	var usr auth.Principal
	if _, err := c.do(ctx, rest.Get, pathMe, nil, &usr, token); err != nil {
		return auth.Principal{}, errors.Wrap(err, "fetching current user")
	}
	return usr, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, rest.Post, pathLogout, nil, nil, token)
	return err
}
