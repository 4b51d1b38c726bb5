package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

// DefaultTimeout is the per-request client timeout.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts for retryable failures.
	// Zero sends each request exactly once.
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// HTTPSource fetches families from a running server's /call_tool endpoint.
type HTTPSource struct {
	baseURL  string
	client   *http.Client
	executor failsafe.Executor[[]byte]
	logger   logging.Logger
	now      func() time.Time
}

// NewHTTP creates an HTTP source. A nil logger discards.
func NewHTTP(cfg HTTPConfig, logger logging.Logger) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &HTTPSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		now:     time.Now,
	}
	if cfg.Retries > 0 {
		s.executor = newRetryExecutor(cfg)
	}
	return s
}

func newRetryExecutor(cfg HTTPConfig) failsafe.Executor[[]byte] {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = 5 * time.Second
	}
	retry := retrypolicy.NewBuilder[[]byte]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.Retries).
		WithJitterFactor(0.1).
		HandleIf(func(_ []byte, err error) bool {
			var fe *FetchError
			return errors.As(err, &fe) && fe.Retryable()
		}).
		Build()
	return failsafe.With(retry)
}

type callRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// Fetch posts the family's tool call and decodes the result.
func (s *HTTPSource) Fetch(ctx context.Context, sel metrics.Selector) (metrics.Snapshot, error) {
	tool := sel.Family.ToolName()
	if tool == "" {
		return metrics.Snapshot{}, &FetchError{
			Kind: KindUnknownTool,
			Tool: string(sel.Family),
			Err:  fmt.Errorf("unknown metric family %q", sel.Family),
		}
	}
	payload, err := json.Marshal(callRequest{ToolName: tool, Parameters: sel.Params(s.now())})
	if err != nil {
		return metrics.Snapshot{}, &FetchError{Kind: KindDecode, Tool: tool, Err: err}
	}

	body, err := s.do(ctx, tool, func() ([]byte, error) {
		return s.post(ctx, tool, payload)
	})
	if err != nil {
		return metrics.Snapshot{}, err
	}

	snap, err := metrics.DecodeSnapshot(body)
	if err != nil {
		return metrics.Snapshot{}, &FetchError{Kind: KindDecode, Tool: tool, Status: http.StatusOK, Err: err}
	}
	if msg := snap.String("error"); msg != "" {
		kind := KindHTTP
		if strings.HasPrefix(msg, "Unknown tool") {
			kind = KindUnknownTool
		}
		return metrics.Snapshot{}, &FetchError{Kind: kind, Tool: tool, Status: http.StatusOK, Err: errors.New(msg)}
	}
	return snap, nil
}

// Tools reads the server's tool catalogue from GET /tools.
func (s *HTTPSource) Tools(ctx context.Context) (map[string]json.RawMessage, error) {
	body, err := s.do(ctx, "tools", func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/tools", nil)
		if err != nil {
			return nil, &FetchError{Kind: KindConnection, Tool: "tools", Err: err}
		}
		return s.roundTrip(req, "tools")
	})
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &FetchError{Kind: KindDecode, Tool: "tools", Status: http.StatusOK, Err: err}
	}
	return out, nil
}

// Ping checks GET /health.
func (s *HTTPSource) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return &FetchError{Kind: KindConnection, Tool: "health", Err: err}
	}
	_, err = s.roundTrip(req, "health")
	return err
}

// do runs fn once, or through the retry executor when retries are enabled.
func (s *HTTPSource) do(ctx context.Context, tool string, fn func() ([]byte, error)) ([]byte, error) {
	if s.executor == nil {
		return fn()
	}
	var last error
	attempt := 0
	body, err := s.executor.WithContext(ctx).Get(func() ([]byte, error) {
		attempt++
		if attempt > 1 {
			s.logger.WithFields(logging.Fields{
				"tool":    tool,
				"attempt": attempt,
			}).WithError(last).Debug("retrying fetch")
		}
		b, err := fn()
		last = err
		return b, err
	})
	if err == nil {
		return body, nil
	}
	if KindOf(last) != "" {
		return nil, last
	}
	return nil, transportError(tool, err)
}

func (s *HTTPSource) post(ctx context.Context, tool string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/call_tool", bytes.NewReader(payload))
	if err != nil {
		return nil, &FetchError{Kind: KindConnection, Tool: tool, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return s.roundTrip(req, tool)
}

func (s *HTTPSource) roundTrip(req *http.Request, tool string) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError(tool, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, transportError(tool, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Kind:   KindHTTP,
			Tool:   tool,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}
	return body, nil
}
