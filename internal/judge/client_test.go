package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faysoula/SyncSolve-sub000/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeJudge serves the provider's submit/poll endpoints. statuses is the
// sequence of status ids returned by successive polls; the last entry
// repeats once the sequence is exhausted.
type fakeJudge struct {
	statuses []int
	stdout   string
	stderr   string
	compile  string

	posts int32
	gets  int32
}

func (f *fakeJudge) handler() http.Handler {
	mux := http.NewServeMux()
	// Method is checked by hand because method-qualified mux patterns need Go 1.22+.
	mux.HandleFunc("/submissions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		atomic.AddInt32(&f.posts, 1)
		var req submissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(submissionToken{Token: "tok-1"})
	})
	mux.HandleFunc("/submissions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		n := int(atomic.AddInt32(&f.gets, 1)) - 1
		if n >= len(f.statuses) {
			n = len(f.statuses) - 1
		}

		var status submissionStatus
		status.Status.ID = f.statuses[n]
		status.Stdout = f.stdout
		status.Stderr = f.stderr
		status.CompileOutput = f.compile
		json.NewEncoder(w).Encode(status)
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeJudge) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		PollBudget:   time.Second,
	}, testLogger())
}

func TestSubmitPollsUntilAccepted(t *testing.T) {
	fake := &fakeJudge{statuses: []int{2, 2, 3}, stdout: "3\n"}
	client := newTestClient(t, fake)

	verdict, err := client.Submit(context.Background(), "print(1+2)", store.LanguagePython, "")
	require.NoError(t, err)

	assert.True(t, verdict.Valid)
	assert.Equal(t, "3\n", verdict.Output)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.posts))
	assert.Equal(t, int32(3), atomic.LoadInt32(&fake.gets), "should poll exactly until the first terminal status")
}

func TestSubmitTimesOutWhenNeverTerminal(t *testing.T) {
	fake := &fakeJudge{statuses: []int{2}}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		PollBudget:   10 * time.Millisecond,
	}, testLogger())

	_, err := client.Submit(context.Background(), "while True: pass", store.LanguagePython, "")
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestSubmitRejectsUnsupportedLanguage(t *testing.T) {
	fake := &fakeJudge{statuses: []int{3}}
	client := newTestClient(t, fake)

	_, err := client.Submit(context.Background(), "puts 1", store.Language("ruby"), "")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Zero(t, atomic.LoadInt32(&fake.posts), "unsupported language must not reach the provider")
}

func TestSubmitReportsProviderOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		PollBudget:   time.Second,
	}, testLogger())

	_, err := client.Submit(context.Background(), "print(1)", store.LanguagePython, "")
	assert.ErrorIs(t, err, ErrJudgeUnavailable)
}

func TestSubmitUnreachableProvider(t *testing.T) {
	client := NewClient(Config{
		BaseURL:      "http://127.0.0.1:1",
		PollInterval: time.Millisecond,
		PollBudget:   time.Second,
	}, testLogger())

	_, err := client.Submit(context.Background(), "print(1)", store.LanguagePython, "")
	assert.ErrorIs(t, err, ErrJudgeUnavailable)
}

func TestVerdictFromFailureStatus(t *testing.T) {
	tests := []struct {
		name    string
		stderr  string
		compile string
		want    string
	}{
		{name: "runtime error prefers stderr", stderr: "Traceback (most recent call last)", want: "Traceback (most recent call last)"},
		{name: "compile error falls back to compiler output", compile: "error: expected ';'", want: "error: expected ';'"},
		{name: "no diagnostics at all", want: "syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeJudge{statuses: []int{6}, stderr: tt.stderr, compile: tt.compile}
			client := newTestClient(t, fake)

			verdict, err := client.Submit(context.Background(), "int main( {", store.LanguageCpp, "")
			require.NoError(t, err)

			assert.False(t, verdict.Valid)
			assert.Equal(t, tt.want, verdict.Output)
		})
	}
}

func TestLanguageIDsCoverAllLanguages(t *testing.T) {
	for _, lang := range []store.Language{store.LanguageCpp, store.LanguageJava, store.LanguagePython} {
		_, ok := languageIDs[lang]
		assert.True(t, ok, fmt.Sprintf("missing provider id for %s", lang))
	}
}
