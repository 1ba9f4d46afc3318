package invigilation

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

type (
	// Repository is implemented by the scheduling API client.
	Repository interface {
		AssignInvigilators(ctx context.Context, req Request) (Result, error)
		InvigilationHistory(ctx context.Context) ([]Record, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Assign expects a validated Request.
func (svc *Service) Assign(ctx context.Context, req Request) (Result, error) {
	res, err := svc.repo.AssignInvigilators(ctx, req)
	if err != nil {
		return Result{}, errors.Wrap(err, "assigning invigilators")
	}
	if !res.Success && res.Summary.Error != "" {
		return res, core.NewAPIError(http.StatusBadRequest, res.Summary.Error)
	}
	return res, nil
}

func (svc *Service) History(ctx context.Context) ([]Record, error) {
	records, err := svc.repo.InvigilationHistory(ctx)
	return records, errors.Wrap(err, "fetching invigilation history")
}
