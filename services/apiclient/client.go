// Package apiclient talks to the external scheduling API.
package apiclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
)

const (
	pathLogin         = "/users/login"
	pathMe            = "/users/me"
	pathLogout        = "/user/logout"
	pathAssign        = "/input/assign"
	pathInputData     = "/input/input-data"
	pathGenerateLink  = "/api/teachers/generate-link"
	pathAvailAll      = "/availability/all"
	pathAvailResponse = "/availability/response/"
	pathAvailSubmit   = "/availability/submit"
	pathAvailReset    = "/availability/reset"
	pathAvailSync     = "/availability/update-after-timetable"
	pathGenerate      = "/generate/time-table"
	pathTimetables    = "/get/time-tables"
	pathInvigAssign   = "/invigilators/assign"
	pathInvigHistory  = "/invigilators/assignments"
)

type Client struct {
	baseURL string
	rest    *rest.Client
	logger  core.Logger
}

// New returns a Client for the API at baseURL. A zero timeout waits forever.
func New(baseURL string, timeout time.Duration, logger core.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
		logger:  logger,
	}
}

// do sends one request. The session token is read from ctx unless given explicitly.
// in is JSON encoded when non nil; out is decoded when non nil.
func (c *Client) do(ctx context.Context, method rest.Method, path string, in, out interface{}, token ...string) (*rest.Response, error) {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
	}

	tkn := auth.TokenFromContext(ctx)
	if len(token) > 0 {
		tkn = token[0]
	}
	if tkn != "" {
		req.Headers["Cookie"] = (&http.Cookie{Name: auth.CookieName, Value: tkn}).String()
	}

	if in != nil {
		body, err := sonic.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		req.Body = body
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.logger.Warn(string(method)+" "+path+" failed", err)
		return nil, errors.Wrapf(core.ErrNetwork, "%s %s: %v", method, path, err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return res, core.NewAPIError(res.StatusCode, serverMessage(res.Body))
	}

	if out != nil {
		if err := unmarshal(res.Body, out); err != nil {
			return res, errors.Wrapf(core.ErrBadResponse, "%s %s: %v", method, path, err)
		}
	}
	return res, nil
}

// unmarshal decodes a JSON body; an empty body leaves out untouched.
func unmarshal(body string, out interface{}) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	return sonic.UnmarshalString(body, out)
}

// serverMessage extracts the message of an error body: `message`, then `error`, then the raw text.
func serverMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	var payload struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := sonic.UnmarshalString(body, &payload); err == nil {
		if s, ok := payload.Message.(string); ok && s != "" {
			return s
		}
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		if payload.Message != nil || payload.Error != nil {
			return body
		}
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
			return ""
		}
	}
	if strings.HasPrefix(body, "<") { // HTML error pages are useless to users
		return ""
	}
	return body
}

// sessionCookie returns the session token set by res, if any.
func sessionCookie(res *rest.Response) string {
	if res == nil {
		return ""
	}
	for _, ck := range (&http.Response{Header: http.Header(res.Headers)}).Cookies() {
		if ck.Name == auth.CookieName {
			return ck.Value
		}
	}
	return ""
}
