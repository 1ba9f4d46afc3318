package timetable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
)

// minSuggestRatio is the similarity above which a class name is offered as a suggestion.
const minSuggestRatio = .6

var ErrNoTimetables = errors.New("no timetables have been generated yet")

type (
	// Repository is implemented by the scheduling API client.
	// The session token travels in ctx (see auth.NewContext).
	Repository interface {
		AssignClass(ctx context.Context, class ClassInput) error
		InputData(ctx context.Context) (InputData, error)
		GenerateTimetable(ctx context.Context, req GenerateRequest) (GenerateResult, error)
		Timetables(ctx context.Context) ([]ClassTimetable, error)
	}

	// Store keeps the last fetched timetables.
	Store interface {
		Put(tables []ClassTimetable)
		All() (tables []ClassTimetable, updatedAt time.Time)
	}

	// AvailabilitySource gives the teachers' availability keyed by teacher id.
	AvailabilitySource interface {
		ByTeacher(ctx context.Context) (map[string]availability.Record, error)
	}

	// NotFoundError is returned when a class name matches nothing.
	NotFoundError struct {
		Name       string
		Suggestion string
	}

	Service struct {
		repo   Repository
		avail  AvailabilitySource
		store  Store
		maxAge time.Duration
	}

	// Option configures a Service.
	Option func(*Service)
)

func (err NotFoundError) Error() string {
	msg := fmt.Sprintf("class %q not found", err.Name)
	if err.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", err.Suggestion)
	}
	return msg
}

// WithStore serves timetables from store while they are younger than maxAge.
func WithStore(store Store, maxAge time.Duration) Option {
	return func(svc *Service) {
		svc.store = store
		svc.maxAge = maxAge
	}
}

func NewService(repo Repository, avail AvailabilitySource, opts ...Option) *Service {
	svc := &Service{repo: repo, avail: avail}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateClass expects a validated ClassInput.
func (svc *Service) CreateClass(ctx context.Context, class ClassInput) error {
	return errors.Wrap(svc.repo.AssignClass(ctx, class), "assigning class")
}

func (svc *Service) Inputs(ctx context.Context) (InputData, error) {
	data, err := svc.repo.InputData(ctx)
	return data, errors.Wrap(err, "fetching input data")
}

// PrepareGeneration builds the generation request of a class without sending it.
func (svc *Service) PrepareGeneration(ctx context.Context, className string) (GenerateRequest, error) {
	className = core.CleanString(className)
	if className == "" {
		return GenerateRequest{}, core.NewValidationError(nil, core.FieldError{Field: "class", Error: "this field is required"})
	}

	data, err := svc.Inputs(ctx)
	if err != nil {
		return GenerateRequest{}, err
	}
	class, ok := data.Class(className)
	if !ok {
		return GenerateRequest{}, &NotFoundError{Name: className, Suggestion: Suggest(className, data.Names())}
	}

	avail, err := svc.avail.ByTeacher(ctx)
	if err != nil {
		return GenerateRequest{}, err
	}
	return BuildGenerateRequest(class, avail), nil
}

// Generate asks the API to build the timetable of a class.
func (svc *Service) Generate(ctx context.Context, className string) (GenerateResult, error) {
	req, err := svc.PrepareGeneration(ctx, className)
	if err != nil {
		return GenerateResult{}, err
	}
	res, err := svc.repo.GenerateTimetable(ctx, req)
	return res, errors.Wrap(err, "generating timetable")
}

// Refresh fetches the timetables from the API and updates the store.
func (svc *Service) Refresh(ctx context.Context) ([]ClassTimetable, error) {
	tables, err := svc.repo.Timetables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching timetables")
	}
	if svc.store != nil {
		svc.store.Put(tables)
	}
	return tables, nil
}

// Timetables returns every generated timetable.
func (svc *Service) Timetables(ctx context.Context) ([]ClassTimetable, error) {
	if svc.store != nil {
		if tables, updatedAt := svc.store.All(); !updatedAt.IsZero() && time.Since(updatedAt) < svc.maxAge {
			return tables, nil
		}
	}
	return svc.Refresh(ctx)
}

// Timetable returns the timetable of one class.
func (svc *Service) Timetable(ctx context.Context, classID string) (ClassTimetable, error) {
	tables, err := svc.Timetables(ctx)
	if err != nil {
		return ClassTimetable{}, err
	}
	classID = core.CleanString(classID)
	for _, t := range tables {
		if t.ClassID == classID {
			return t, nil
		}
	}
	return ClassTimetable{}, &NotFoundError{Name: classID, Suggestion: Suggest(classID, ClassIDs(tables))}
}

// Giant merges the timetables of the selected classes, kept in API order.
// No selection means every class.
func (svc *Service) Giant(ctx context.Context, classIDs []string) ([]string, slot.Giant, error) {
	tables, err := svc.Timetables(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(tables) == 0 {
		return nil, nil, ErrNoTimetables
	}

	selected, err := Select(tables, classIDs)
	if err != nil {
		return nil, nil, err
	}
	schedules := make([]slot.ClassSchedule, 0, len(selected))
	for _, t := range selected {
		schedules = append(schedules, t.ClassSchedule())
	}
	return ClassIDs(selected), slot.Merge(schedules), nil
}

// Select keeps the tables whose class is listed in classIDs; an empty list keeps them all.
func Select(tables []ClassTimetable, classIDs []string) ([]ClassTimetable, error) {
	wanted := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		if id = core.CleanString(id); id != "" {
			wanted[id] = true
		}
	}
	if len(wanted) == 0 {
		return tables, nil
	}

	out := make([]ClassTimetable, 0, len(wanted))
	for _, t := range tables {
		if wanted[t.ClassID] {
			out = append(out, t)
			delete(wanted, t.ClassID)
		}
	}
	for _, id := range classIDs {
		if id = core.CleanString(id); wanted[id] {
			return nil, &NotFoundError{Name: id, Suggestion: Suggest(id, ClassIDs(tables))}
		}
	}
	return out, nil
}

func ClassIDs(tables []ClassTimetable) []string {
	ids := make([]string, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ClassID)
	}
	return ids
}

// Suggest returns the candidate closest to name, or "" when none is similar enough.
func Suggest(name string, candidates []string) string {
	var best string
	var bestRatio float64
	a := strings.Split(strings.ToLower(name), "")
	for _, c := range candidates {
		ratio := difflib.NewMatcher(a, strings.Split(strings.ToLower(c), "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = c, ratio
		}
	}
	if bestRatio < minSuggestRatio {
		return ""
	}
	return best
}
