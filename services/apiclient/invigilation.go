package apiclient

import (
	"context"
	"net/http"

	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/invigilation"
)

// AssignInvigilators returns the decoded result even on a 400, so the summary error reaches the caller.
func (c *Client) AssignInvigilators(ctx context.Context, req invigilation.Request) (invigilation.Result, error) {
	var out invigilation.Result
	res, err := c.do(ctx, rest.Post, pathInvigAssign, req, &out)
	if err != nil && core.IsAPIStatus(err, http.StatusBadRequest) && res != nil {
		var failed invigilation.Result
		if decodeErr := unmarshal(res.Body, &failed); decodeErr == nil && failed.Summary.Error != "" {
			return failed, nil
		}
	}
	return out, err
}

func (c *Client) InvigilationHistory(ctx context.Context) ([]invigilation.Record, error) {
	var out struct {
		Assignments []invigilation.Record `json:"assignments"`
	}
	if _, err := c.do(ctx, rest.Get, pathInvigHistory, nil, &out); err != nil {
		return nil, err
	}
	return out.Assignments, nil
}
