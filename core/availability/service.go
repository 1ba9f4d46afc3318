package availability

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var ErrNotFound = errors.New("no availability submitted by this teacher")

type (
	// Repository is implemented by the scheduling API client.
	// The session token travels in ctx (see auth.NewContext).
	Repository interface {
		AllAvailability(ctx context.Context) ([]Record, error)
		AvailabilityResponse(ctx context.Context, teacherID string) (Record, error)
		SubmitAvailability(ctx context.Context, sub Submission) error
		ResetAvailability(ctx context.Context) error
		SendAvailabilityLink(ctx context.Context, req LinkRequest) error
		SyncAvailability(ctx context.Context) (SyncResult, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ByTeacher returns every record keyed by teacher id; records without an id are skipped.
func (svc *Service) ByTeacher(ctx context.Context) (map[string]Record, error) {
	records, err := svc.repo.AllAvailability(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching availability")
	}
	out := make(map[string]Record, len(records))
	for _, r := range records {
		if r.TeacherID != "" {
			out[r.TeacherID] = r
		}
	}
	return out, nil
}

func (svc *Service) Response(ctx context.Context, teacherID string) (Record, error) {
	rec, err := svc.repo.AvailabilityResponse(ctx, core.CleanString(teacherID))
	if err != nil {
		if core.IsAPIStatus(err, http.StatusNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Wrap(err, "fetching availability response")
	}
	return rec, nil
}

// Submit expects a validated Submission.
func (svc *Service) Submit(ctx context.Context, sub Submission) error {
	sub.Submitted = true
	return errors.Wrap(svc.repo.SubmitAvailability(ctx, sub), "submitting availability")
}

func (svc *Service) Reset(ctx context.Context) error {
	return errors.Wrap(svc.repo.ResetAvailability(ctx), "resetting availability")
}

// SendLink expects a validated LinkRequest.
func (svc *Service) SendLink(ctx context.Context, req LinkRequest) error {
	return errors.Wrap(svc.repo.SendAvailabilityLink(ctx, req), "sending availability link")
}

func (svc *Service) Sync(ctx context.Context) (SyncResult, error) {
	res, err := svc.repo.SyncAvailability(ctx)
	return res, errors.Wrap(err, "syncing availability")
}
