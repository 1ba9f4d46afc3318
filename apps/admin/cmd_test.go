package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/apiclient"
	"github.com/trezcool/ratiba/tests"
)

const timetablesBody = `[
	{"class_id": "CSE-A", "ttable": {"Math": [0, 1], "Physics": [3]}},
	{"class_id": "CSE-B", "ttable": {"English": [0]}}
]`

// setup starts a fake scheduling API; cookies holds the session seen by each "METHOD path".
func setup(t *testing.T) (*commandLine, *bytes.Buffer, *sync.Map) {
	cookies := new(sync.Map)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(auth.CookieName); err == nil {
			cookies.Store(r.Method+" "+r.URL.Path, ck.Value)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /users/login":
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"s3cret"`) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "cli-token"})
			_, _ = io.WriteString(w, `{"user": "admin"}`)
		case "GET /get/time-tables":
			_, _ = io.WriteString(w, timetablesBody)
		case "DELETE /availability/reset":
			_, _ = io.WriteString(w, `{"success": true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.Close)

	client := apiclient.New(api.URL, 5*time.Second, testutil.NewLogger())
	availSvc := availability.NewService(client)
	out := new(bytes.Buffer)
	return &commandLine{
		authSvc:  auth.NewService(client),
		ttSvc:    timetable.NewService(client, availSvc),
		availSvc: availSvc,
		out:      out,
	}, out, cookies
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
	extra      interface{}
}

type extra struct {
	pwd string
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("cli.run() output = %q, want it to contain %q", out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, out, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
		{name: "login", args: []string{"login"}, extra: extra{pwd: "s3cret"}, wantOut: "cli-token"},
		{name: "login: no password", args: []string{"login"}, wantErr: errHelp},
		{name: "login: wrong password", args: []string{"login"}, extra: extra{pwd: "nope"}, wantErrStr: "invalid password"},
		{name: "grid: no class", args: []string{"grid"}, wantErr: errHelp},
		{name: "grid", args: []string{"grid", "-class", "CSE-A", "-token", "t"}, wantOut: "Timetable - CSE-A"},
		{name: "grid: prompt", args: []string{"grid", "-class", "CSE-B"}, extra: extra{pwd: "s3cret"}, wantOut: "English"},
		{name: "grid: unknown class", args: []string{"grid", "-class", "CSE-C", "-token", "t"}, wantErrStr: `did you mean`},
		{name: "giant: no out", args: []string{"giant", "-token", "t"}, wantErr: errHelp},
		{name: "giant: bad format", args: []string{"giant", "-out", "giant.csv", "-token", "t"}, wantErrStr: "unsupported export format"},
		{name: "reset", args: []string{"reset-availability", "-token", "t"}, wantOut: "availability reset"},
		{name: "slot: encode", args: []string{"slot", "-day", "2", "-period", "3"}, wantOut: "17 (Wednesday 12:00 - 1:00)"},
		{name: "slot: decode", args: []string{"slot", "-index", "34"}, wantOut: "day=4 period=6"},
		{name: "slot: out of range", args: []string{"slot", "-index", "35"}, wantErrStr: slot.ErrOutOfRange.Error()},
		{name: "slot: bad day", args: []string{"slot", "-day", "5", "-period", "0"}, wantErrStr: slot.ErrOutOfRange.Error()},
		{name: "slot: nothing", args: []string{"slot"}, wantErr: errHelp},
	}
	runCLITests(t, cli, out, tests)
}

func Test_commandLine_grid(t *testing.T) {
	cli, out, cookies := setup(t)

	if err := cli.run([]string{"admin", "grid", "-class", "CSE-A", "-token", "abc"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}
	if got, _ := cookies.Load("GET /get/time-tables"); got != "abc" {
		t.Errorf("forwarded token = %q, want %q", got, "abc")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2+slot.DaysPerWeek {
		t.Fatalf("grid has %d lines, want %d:\n%s", len(lines), 2+slot.DaysPerWeek, out.String())
	}
	monday := strings.Fields(lines[2])
	if monday[0] != "Monday" || monday[1] != "Math" || monday[2] != "Math" || monday[3] != "-" || monday[4] != "Physics" {
		t.Errorf("monday row = %v", monday)
	}
}

func Test_commandLine_giant(t *testing.T) {
	cli, out, _ := setup(t)
	dir := t.TempDir()

	tests := []struct {
		file   string
		prefix []byte
	}{
		{"giant.pdf", []byte("%PDF-")},
		{"giant.xlsx", []byte("PK")},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			out.Reset()
			path := filepath.Join(dir, tt.file)
			if err := cli.run([]string{"admin", "giant", "-class", "CSE-A, CSE-B", "-out", path, "-token", "t"}); err != nil {
				t.Fatalf("cli.run() error = %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.HasPrefix(data, tt.prefix) {
				t.Errorf("%s does not start with %q", tt.file, tt.prefix)
			}
			if !strings.Contains(out.String(), "2 classes, 1 conflicting slots") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}
