package echoweb

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/assets"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/invigilation"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/apiclient"
	"github.com/trezcool/ratiba/services/email"
	"github.com/trezcool/ratiba/services/refresher"
	"github.com/trezcool/ratiba/storage/cache/inmem"
	"github.com/trezcool/ratiba/tests"
)

const (
	testToken = "opaque-session"

	timetablesBody = `{"data": [
		{"class_id": "CSE-A", "ttable": {"Math": [0, 1], "Physics": [3]}},
		{"class_id": "CSE-B", "ttable": {"English": [0]}}
	]}`
	inputDataBody = `{"success": true, "classes": ["CSE-A"], "data": [{"class_name": "CSE-A", "teachers": [
		{"id": "T1", "name": "Ann", "subject": ["Math"], "email": "ann@college.test", "no_of_classes": 3, "theory_lab": "theory"}
	]}]}`
)

type apiCall struct {
	method string
	path   string
	body   string
}

// fakeAPI stands in for the scheduling API. Routes are keyed by "METHOD path".
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]func(w http.ResponseWriter)
	calls  []apiCall
}

func (api *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	api.mu.Lock()
	api.calls = append(api.calls, apiCall{method: r.Method, path: r.URL.Path, body: string(body)})
	handle, ok := api.routes[r.Method+" "+r.URL.Path]
	api.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	handle(w)
}

func (api *fakeAPI) called(method, path string) []apiCall {
	api.mu.Lock()
	defer api.mu.Unlock()
	out := make([]apiCall, 0)
	for _, c := range api.calls {
		if c.method == method && c.path == path {
			out = append(out, c)
		}
	}
	return out
}

func reply(code int, body string, headers ...string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		for i := 0; i+1 < len(headers); i += 2 {
			w.Header().Add(headers[i], headers[i+1])
		}
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

type fixture struct {
	srv    Server
	api    *fakeAPI
	apiSrv *httptest.Server
	mail   *emailsvc.ConsoleServiceMock
}

// setup serves the console against a fake API; sessions are trusted on the cookie alone.
func setup(t *testing.T, routes map[string]func(w http.ResponseWriter)) fixture {
	t.Helper()
	return newFixture(t, routes, false)
}

// setupRemote is setup with every session confirmed through /users/me.
func setupRemote(t *testing.T, routes map[string]func(w http.ResponseWriter)) fixture {
	t.Helper()
	return newFixture(t, routes, true)
}

func newFixture(t *testing.T, routes map[string]func(w http.ResponseWriter), verifyRemote bool) fixture {
	t.Helper()
	api := &fakeAPI{routes: routes}
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	conf := testutil.NewConfig()
	conf.API.BaseURL = apiSrv.URL
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator(timetable.InitValidators, invigilation.InitValidators)
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, true, logger)

	client := apiclient.New(conf.API.BaseURL, 5*time.Second, logger)
	availSvc := availability.NewService(client)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	srv, err := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Gate:            auth.NewGate(client, verifyRemote),
		AuthSvc:         auth.NewService(client),
		TimetableSvc:    timetable.NewService(client, availSvc, refresher.StoreOptions(conf, inmem.NewTimetableStore())...),
		AvailabilitySvc: availSvc,
		InvigilationSvc: invigilation.NewService(client),
		MailSvc:         mailSvc,
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
	})
	require.NoError(t, err)
	return fixture{srv: srv, api: api, apiSrv: apiSrv, mail: mailSvc}
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	token        string
	wantCode     int
	wantLocation string
	wantBody     []string
}

func newRequest(method, path, token string, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	return req, httptest.NewRecorder()
}

func (f fixture) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newRequest(tt.method, tt.path, tt.token, tt.form)
	f.srv.ServeHTTP(rec, req)
	return rec
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
	}
	for _, want := range tt.wantBody {
		assert.Contains(t, rec.Body.String(), want)
	}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
