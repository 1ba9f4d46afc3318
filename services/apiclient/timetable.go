package apiclient

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

func (c *Client) AssignClass(ctx context.Context, class timetable.ClassInput) error {
	_, err := c.do(ctx, rest.Post, pathAssign, class, nil)
	return err
}

func (c *Client) InputData(ctx context.Context) (timetable.InputData, error) {
	var out struct {
		Success bool `json:"success"`
		timetable.InputData
	}
	if _, err := c.do(ctx, rest.Get, pathInputData, nil, &out); err != nil {
		return timetable.InputData{}, err
	}
	return out.InputData, nil
}

func (c *Client) GenerateTimetable(ctx context.Context, req timetable.GenerateRequest) (timetable.GenerateResult, error) {
	var out timetable.GenerateResult
	_, err := c.do(ctx, rest.Post, pathGenerate, req, &out)
	return out, err
}

// Timetables accepts either `{"data": [...]}` or a bare array.
func (c *Client) Timetables(ctx context.Context) ([]timetable.ClassTimetable, error) {
	res, err := c.do(ctx, rest.Get, pathTimetables, nil, nil)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(res.Body)
	tables := make([]timetable.ClassTimetable, 0)
	switch {
	case body == "":
	case strings.HasPrefix(body, "["):
		err = sonic.UnmarshalString(body, &tables)
	default:
		var wrapped struct {
			Data []timetable.ClassTimetable `json:"data"`
		}
		if err = sonic.UnmarshalString(body, &wrapped); err == nil && wrapped.Data != nil {
			tables = wrapped.Data
		}
	}
	if err != nil {
		return nil, errors.Wrapf(core.ErrBadResponse, "GET %s: %v", pathTimetables, err)
	}
	return tables, nil
}
