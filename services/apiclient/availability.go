package apiclient

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core/availability"
)

func (c *Client) AllAvailability(ctx context.Context) ([]availability.Record, error) {
	var out []availability.Record
	if _, err := c.do(ctx, rest.Get, pathAvailAll, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AvailabilityResponse(ctx context.Context, teacherID string) (availability.Record, error) {
	var out availability.Record
	_, err := c.do(ctx, rest.Get, pathAvailResponse+url.PathEscape(teacherID), nil, &out)
	return out, err
}

func (c *Client) SubmitAvailability(ctx context.Context, sub availability.Submission) error {
	_, err := c.do(ctx, rest.Post, pathAvailSubmit, sub, nil)
	return err
}

func (c *Client) ResetAvailability(ctx context.Context) error {
	_, err := c.do(ctx, rest.Delete, pathAvailReset, nil, nil)
	return err
}

func (c *Client) SendAvailabilityLink(ctx context.Context, req availability.LinkRequest) error {
	_, err := c.do(ctx, rest.Post, pathGenerateLink, req, nil)
	return err
}

func (c *Client) SyncAvailability(ctx context.Context) (availability.SyncResult, error) {
	var out availability.SyncResult
	_, err := c.do(ctx, rest.Post, pathAvailSync, nil, &out)
	return out, err
}
