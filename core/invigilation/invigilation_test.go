package invigilation

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/tests"
)

type repoMock struct {
	calls int
	res   Result
	err   error
}

func (r *repoMock) AssignInvigilators(context.Context, Request) (Result, error) {
	r.calls++
	return r.res, r.err
}

func (r *repoMock) InvigilationHistory(context.Context) ([]Record, error) {
	return []Record{{ExamDateFrom: "2024-03-04"}}, r.err
}

func validRequest() Request {
	req := NewRequest()
	req.ExamDateFrom = "2024-03-04"
	req.ExamDateTo = "2024-03-08"
	req.SetTeachers("Ann\n  \r\nBob \n")
	return req
}

func TestNewRequest(t *testing.T) {
	req := NewRequest()
	assert.Equal(t, 2, req.TeachersPerDay)
	assert.Equal(t, "09:00", req.ExamTimeStart)
	assert.Equal(t, "12:00", req.ExamTimeEnd)
}

func TestRequest_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator(InitValidators)

	tests := []struct {
		name     string
		mutate   func(r *Request)
		wantErrs map[string]string
	}{
		{name: "valid", mutate: func(r *Request) {}},
		{
			name:     "missing dates",
			mutate:   func(r *Request) { r.ExamDateFrom, r.ExamDateTo = "", " " },
			wantErrs: map[string]string{"exam_date_from": "this field is required", "exam_date_to": "this field is required"},
		},
		{
			name:     "malformed date",
			mutate:   func(r *Request) { r.ExamDateFrom = "04/03/2024" },
			wantErrs: map[string]string{"exam_date_from": "must be a date in the format YYYY-MM-DD"},
		},
		{
			name:     "end before start",
			mutate:   func(r *Request) { r.ExamDateTo = "2024-03-01" },
			wantErrs: map[string]string{"exam_date_to": "end date must be on or after the start date"},
		},
		{name: "same day", mutate: func(r *Request) { r.ExamDateTo = r.ExamDateFrom }},
		{
			name:     "no teachers",
			mutate:   func(r *Request) { r.SetTeachers(" \n\n") },
			wantErrs: map[string]string{"teacher_names": "this field is required"},
		},
		{
			name:     "zero per day",
			mutate:   func(r *Request) { r.TeachersPerDay = 0 },
			wantErrs: map[string]string{"teachers_per_day": "teachers_per_day must be greater than 0"},
		},
		{
			name:     "missing times",
			mutate:   func(r *Request) { r.ExamTimeStart, r.ExamTimeEnd = "", "" },
			wantErrs: map[string]string{"exam_time_start": "this field is required", "exam_time_end": "this field is required"},
		},
		{
			name:     "malformed time",
			mutate:   func(r *Request) { r.ExamTimeStart = "9am" },
			wantErrs: map[string]string{"exam_time_start": "must be a time in the format HH:MM"},
		},
		{
			name:     "end time not after start",
			mutate:   func(r *Request) { r.ExamTimeEnd = r.ExamTimeStart },
			wantErrs: map[string]string{"exam_time_end": "end time must be after the start time"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate(validate)
			if tt.wantErrs == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErrs, testutil.FieldErrors(t, err, translator))
		})
	}
}

func TestRequest_ValidationBeforeNetwork(t *testing.T) {
	validate, _ := testutil.NewValidator(InitValidators)
	repo := &repoMock{}
	svc := NewService(repo)

	for _, mutate := range []func(r *Request){
		func(r *Request) { r.ExamDateTo = "2024-01-01" },
		func(r *Request) { r.TeachersPerDay = 0 },
	} {
		req := validRequest()
		mutate(&req)
		if err := req.Validate(validate); err == nil {
			_, _ = svc.Assign(context.Background(), req)
		}
	}
	assert.Equal(t, 0, repo.calls)
}

func TestRequest_Days(t *testing.T) {
	req := validRequest()
	assert.Equal(t, 5, req.Days())
	assert.Equal(t, []string{"Ann", "Bob"}, req.TeacherNames)

	req.ExamDateTo = req.ExamDateFrom
	assert.Equal(t, 1, req.Days())

	req.ExamDateTo = "2024-03-01"
	assert.Equal(t, 0, req.Days())

	req.ExamDateTo = ""
	assert.Equal(t, 0, req.Days())
}

func TestRequest_ExamSlots(t *testing.T) {
	req := validRequest()
	req.ExamDateTo = "2024-03-10" // Mon 4th to Sun 10th
	req.ExamTimeStart = "10:00"
	assert.Equal(t, []slot.Index{1, 8, 15, 22, 29}, req.ExamSlots())
}

func TestService_Assign(t *testing.T) {
	repo := &repoMock{res: Result{Success: true, Assignments: []DayAssignment{
		{Date: "2024-03-04", Teachers: []string{"Ann", "Bob"}, Required: 2, Assigned: 2, Status: StatusSuccess},
		{Date: "2024-03-05", Teachers: []string{"Ann"}, Required: 2, Assigned: 1, Status: StatusPartial},
	}}}
	svc := NewService(repo)

	res, err := svc.Assign(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, res.Assignments, 2)
	assert.Equal(t, 75.0, res.Coverage())

	repo.res = Result{Summary: Summary{Error: "Start date cannot be after end date"}}
	_, err = svc.Assign(context.Background(), validRequest())
	assert.Equal(t, "Start date cannot be after end date", core.UserMessage(err))

	repo.err = core.NewAPIError(http.StatusInternalServerError, "boom")
	_, err = svc.Assign(context.Background(), validRequest())
	assert.True(t, core.IsAPIStatus(err, http.StatusInternalServerError))

	_, err = svc.History(context.Background())
	assert.Error(t, err)
}
