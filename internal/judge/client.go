// judge wraps the external sandboxed judge's HTTP API: submit once, poll the
// returned token until the verdict is terminal or the poll budget runs out.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Faysoula/SyncSolve-sub000/internal/store"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrJudgeUnavailable    = errors.New("judge unavailable")
	ErrExecutionTimeout    = errors.New("execution timed out")
)

// Provider status ids: 1 = in queue, 2 = running, 3 = accepted, anything
// above 3 is a terminal failure variant (wrong answer, compile error, ...).
const (
	statusInQueue    = 1
	statusProcessing = 2
	statusAccepted   = 3
)

// languageIDs maps terminal-session languages to the provider's identifiers.
var languageIDs = map[store.Language]int{
	store.LanguageCpp:    54,
	store.LanguageJava:   62,
	store.LanguagePython: 71,
}

const (
	defaultPollInterval = 3 * time.Second
	defaultPollBudget   = 30 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string

	// PollInterval and PollBudget default to 3s / 30s when zero.
	PollInterval time.Duration
	PollBudget   time.Duration
}

type Client struct {
	baseURL      string
	apiKey       string
	httpc        *http.Client
	pollInterval time.Duration
	pollBudget   time.Duration
	logger       *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollBudget <= 0 {
		cfg.PollBudget = defaultPollBudget
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		httpc:        &http.Client{Timeout: 15 * time.Second},
		pollInterval: cfg.PollInterval,
		pollBudget:   cfg.PollBudget,
		logger:       logger,
	}
}

// Verdict is the binary outcome of one code+stdin pair. Per-test comparison
// against expected output happens a layer up.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Output string `json:"output"`
}

type submissionRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type submissionToken struct {
	Token string `json:"token"`
}

type submissionStatus struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
}

// Submit sends one piece of code with one stdin to the judge and waits for a
// terminal verdict. It returns ErrUnsupportedLanguage before any network
// call, ErrJudgeUnavailable when the provider cannot be reached, and
// ErrExecutionTimeout when the poll budget elapses first; on timeout the
// in-flight submission is abandoned (the provider has no cancel API).
func (c *Client) Submit(ctx context.Context, code string, language store.Language, stdin string) (Verdict, error) {
	langID, ok := languageIDs[language]
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	token, err := c.createSubmission(ctx, code, langID, stdin)
	if err != nil {
		return Verdict{}, err
	}

	deadline := time.Now().Add(c.pollBudget)
	for {
		status, err := c.getSubmission(ctx, token)
		if err != nil {
			return Verdict{}, err
		}

		if status.Status.ID != statusInQueue && status.Status.ID != statusProcessing {
			return verdictFromStatus(status), nil
		}

		if time.Now().After(deadline) {
			c.logger.Warn("abandoning judge submission, poll budget exceeded",
				"token", token,
				"budget", c.pollBudget)
			return Verdict{}, fmt.Errorf("%w after %s", ErrExecutionTimeout, c.pollBudget)
		}

		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) createSubmission(ctx context.Context, code string, langID int, stdin string) (string, error) {
	body, err := json.Marshal(submissionRequest{
		SourceCode: code,
		LanguageID: langID,
		Stdin:      stdin,
	})
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("judge rejected submission", "status", resp.StatusCode, "body", string(payload))
		return "", fmt.Errorf("%w: submission returned status %d", ErrJudgeUnavailable, resp.StatusCode)
	}

	var tok submissionToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: decoding token: %v", ErrJudgeUnavailable, err)
	}
	if tok.Token == "" {
		return "", fmt.Errorf("%w: empty submission token", ErrJudgeUnavailable)
	}

	return tok.Token, nil
}

func (c *Client) getSubmission(ctx context.Context, token string) (submissionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/submissions/"+token, nil)
	if err != nil {
		return submissionStatus{}, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return submissionStatus{}, fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return submissionStatus{}, fmt.Errorf("%w: poll returned status %d", ErrJudgeUnavailable, resp.StatusCode)
	}

	var status submissionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return submissionStatus{}, fmt.Errorf("%w: decoding status: %v", ErrJudgeUnavailable, err)
	}

	return status, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}
}

func verdictFromStatus(status submissionStatus) Verdict {
	if status.Status.ID == statusAccepted {
		return Verdict{Valid: true, Output: status.Stdout}
	}

	output := status.Stderr
	if output == "" {
		output = status.CompileOutput
	}
	if output == "" {
		output = "syntax error"
	}
	return Verdict{Valid: false, Output: output}
}
