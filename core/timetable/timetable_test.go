package timetable

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/tests"
)

type repoMock struct {
	assigned  []ClassInput
	inputs    InputData
	generated []GenerateRequest
	tables    []ClassTimetable
	fetches   int
	err       error
}

func (r *repoMock) AssignClass(_ context.Context, c ClassInput) error {
	r.assigned = append(r.assigned, c)
	return r.err
}

func (r *repoMock) InputData(context.Context) (InputData, error) { return r.inputs, r.err }

func (r *repoMock) GenerateTimetable(_ context.Context, req GenerateRequest) (GenerateResult, error) {
	r.generated = append(r.generated, req)
	return GenerateResult{Success: true}, r.err
}

func (r *repoMock) Timetables(context.Context) ([]ClassTimetable, error) {
	r.fetches++
	return r.tables, r.err
}

type availMock map[string]availability.Record

func (a availMock) ByTeacher(context.Context) (map[string]availability.Record, error) { return a, nil }

type storeMock struct {
	tables    []ClassTimetable
	updatedAt time.Time
}

func (s *storeMock) Put(tables []ClassTimetable) { s.tables, s.updatedAt = tables, time.Now() }
func (s *storeMock) All() ([]ClassTimetable, time.Time) { return s.tables, s.updatedAt }

func teacher(id, name string, classes int, subjects ...string) Teacher {
	return Teacher{ID: id, Name: name, Subject: subjects, NoOfClasses: classes, Status: StatusPending}
}

func TestClassInput_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name     string
		input    ClassInput
		wantErrs map[string]string
	}{
		{
			name:     "empty",
			input:    ClassInput{ClassName: "  "},
			wantErrs: map[string]string{"class_name": "this field is required", "teachers": "this field is required"},
		},
		{
			name: "row without subject",
			input: ClassInput{ClassName: "CSE-A", Teachers: []Teacher{
				{ID: "t1", Name: "Ann", Subject: []string{" "}, NoOfClasses: 3},
			}},
			wantErrs: map[string]string{"teachers[0].subject": "this field is required"},
		},
		{
			name: "bad email and kind",
			input: ClassInput{ClassName: "CSE-A", Teachers: []Teacher{
				{ID: "t1", Name: "Ann", Subject: []string{"Math"}, Email: "nope", TheoryLab: "yoga"},
			}},
			wantErrs: map[string]string{
				"teachers[0].email":      "email must be a valid email address",
				"teachers[0].theory_lab": "theory_lab must be one of [theory lab]",
			},
		},
		{
			name: "negative classes",
			input: ClassInput{ClassName: "CSE-A", Teachers: []Teacher{
				{ID: "t1", Name: "Ann", Subject: []string{"Math"}, NoOfClasses: -1},
			}},
			wantErrs: map[string]string{"teachers[0].no_of_classes": "no_of_classes must be 0 or greater"},
		},
		{
			name: "valid",
			input: ClassInput{ClassName: " CSE-A ", Teachers: []Teacher{
				{ID: " t1 ", Name: "Ann", Subject: []string{"Math", ""}, Email: "ANN@X.TEST", TheoryLab: "Lab", NoOfClasses: 4},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			err := in.Validate(validate)
			if tt.wantErrs != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrs, testutil.FieldErrors(t, err, translator))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "CSE-A", in.ClassName)
			assert.Equal(t, Teacher{
				ID: "t1", Name: "Ann", Subject: []string{"Math"}, Email: "ann@x.test",
				TheoryLab: KindLab, NoOfClasses: 4, Status: StatusPending,
			}, in.Teachers[0])
		})
	}
}

func TestClassInput_ValidateDuplicateTeachers(t *testing.T) {
	validate, translator := testutil.NewValidator(InitValidators)

	in := ClassInput{ClassName: "CSE-A", Teachers: []Teacher{
		teacher("t1", "Ann", 3, "Math"),
		teacher(" t1", "Ann", 2, "Stats"),
	}}
	err := in.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"teachers": "each teacher may appear only once per class"}, testutil.FieldErrors(t, err, translator))

	in.Teachers[1].ID = "t2"
	assert.NoError(t, in.Validate(validate))
}

func TestBuildGenerateRequest(t *testing.T) {
	class := ClassInput{ClassName: "CSE-A", Teachers: []Teacher{
		teacher("t1", "Ann", 3, "Math"),
		teacher("t2", "Bob", 2, "Math", "Stats"),
		teacher("t3", "Cid", 4, "Physics"),
	}}
	avail := map[string]availability.Record{
		"t1": {TeacherID: "t1", AuthenticUnavailability: []slot.Index{0, 1}},
		"t2": {TeacherID: "t2", Slots: []slot.Index{7}},
	}

	req := BuildGenerateRequest(class, avail)

	assert.Equal(t, []StudentGroup{{Group: "CSE-A", Subjects: map[string]int{"Math": 5, "Stats": 2, "Physics": 4}}}, req.StudentGroups)
	assert.Equal(t, []GenerateTeacher{
		{Name: "Ann", Subject: []string{"Math"}},
		{Name: "Bob", Subject: []string{"Math", "Stats"}},
		{Name: "Cid", Subject: []string{"Physics"}},
	}, req.Teachers)
	assert.Equal(t, []Unavailability{
		{Name: "Ann", Slots: []slot.Index{0, 1}},
		{Name: "Bob", Slots: []slot.Index{7}},
		{Name: "Cid", Slots: []slot.Index{}},
	}, req.TeacherUnavailability)
	assert.Equal(t, "Math (5), Physics (4), Stats (2)", req.StudentGroups[0].SubjectSummary())

	// empty unavailability is sent as [], never null
	data, err := json.Marshal(req.TeacherUnavailability[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Cid","slots":[]}`, string(data))
}

func TestUnmarshalAlternateKeys(t *testing.T) {
	var tt ClassTimetable
	require.NoError(t, json.Unmarshal([]byte(`{"class_name":"CSE-B","ttable":{"Math":[0,8]}}`), &tt))
	assert.Equal(t, ClassTimetable{ClassID: "CSE-B", Subjects: map[string][]slot.Index{"Math": {0, 8}}}, tt)

	var tch Teacher
	require.NoError(t, json.Unmarshal([]byte(`{"teacher_id":"t9","name":"Zed","subject":["Art"]}`), &tch))
	assert.Equal(t, "t9", tch.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","teacher_id":"t9"}`), &tch))
	assert.Equal(t, "t1", tch.ID)
}

func TestService_Generate(t *testing.T) {
	repo := &repoMock{inputs: InputData{Classes: []ClassInput{
		{ClassName: "CSE-A", Teachers: []Teacher{teacher("t1", "Ann", 3, "Math")}},
	}}}
	svc := NewService(repo, availMock{"t1": {TeacherID: "t1", Slots: []slot.Index{4}}})
	ctx := context.Background()

	_, err := svc.Generate(ctx, " ")
	assert.IsType(t, &core.ValidationError{}, err)

	_, err = svc.Generate(ctx, "CSE-Z")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "CSE-A", nf.Suggestion)
	assert.Equal(t, `class "CSE-Z" not found (did you mean "CSE-A"?)`, err.Error())

	res, err := svc.Generate(ctx, "CSE-A")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, repo.generated, 1)
	assert.Equal(t, []slot.Index{4}, repo.generated[0].TeacherUnavailability[0].Slots)
}

func TestService_Giant(t *testing.T) {
	repo := &repoMock{tables: []ClassTimetable{
		{ClassID: "A", Subjects: map[string][]slot.Index{"Math": {5}}},
		{ClassID: "B", Subjects: map[string][]slot.Index{"English": {5}}},
		{ClassID: "C", Subjects: map[string][]slot.Index{"Art": {0}}},
	}}
	svc := NewService(repo, availMock{})
	ctx := context.Background()

	classes, giant, err := svc.Giant(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, classes)
	assert.Equal(t, []slot.Entry{{Class: "A", Subject: "Math"}, {Class: "B", Subject: "English"}}, giant[5])

	// API order wins over selection order
	classes, giant, err = svc.Giant(ctx, []string{"C", " A", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, classes)
	assert.Equal(t, []slot.Entry{{Class: "A", Subject: "Math"}}, giant[5])

	_, _, err = svc.Giant(ctx, []string{"A", "Q"})
	assert.IsType(t, &NotFoundError{}, err)

	_, _, err = NewService(&repoMock{}, availMock{}).Giant(ctx, nil)
	assert.Equal(t, ErrNoTimetables, err)
}

func TestService_TimetableWithStore(t *testing.T) {
	repo := &repoMock{tables: []ClassTimetable{{ClassID: "A", Subjects: map[string][]slot.Index{"Math": {1}}}}}
	store := &storeMock{}
	svc := NewService(repo, availMock{}, WithStore(store, time.Minute))
	ctx := context.Background()

	tt, err := svc.Timetable(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, slot.Schedule{1: "Math"}, tt.Schedule())
	assert.Equal(t, 1, repo.fetches)

	// served from the store
	_, err = svc.Timetable(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.fetches)

	// stale store
	store.updatedAt = time.Now().Add(-time.Hour)
	_, err = svc.Timetable(ctx, "B")
	assert.IsType(t, &NotFoundError{}, err)
	assert.Equal(t, 2, repo.fetches)
}

func TestService_APIError(t *testing.T) {
	apiErr := core.NewAPIError(http.StatusInternalServerError, "")
	svc := NewService(&repoMock{err: apiErr}, availMock{})

	err := svc.CreateClass(context.Background(), ClassInput{ClassName: "A"})
	assert.Equal(t, apiErr, errors.Cause(err))
	assert.Equal(t, "request failed with status 500", core.UserMessage(err))
}

func TestSuggest(t *testing.T) {
	names := []string{"CSE-A", "CSE-B", "MECH-1"}
	assert.Equal(t, "CSE-A", Suggest("cse-a", names))
	assert.Equal(t, "MECH-1", Suggest("mech1", names))
	assert.Equal(t, "", Suggest("zzzzzz", names))
	assert.Equal(t, "", Suggest("CSE-A", nil))
}
