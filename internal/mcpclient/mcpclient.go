// Package mcpclient implements the Tool Client (C4): the sole path through
// which the controller and planning pipeline reach side effects. Grounded on
// original_source/app/coach/mcp_client.py's routing table and error
// taxonomy, deliberately diverging on retries — spec.md §4.1 forbids them
// at this layer ("retries are explicit, named operations initiated by
// callers"), so unlike the Python original this client never retries.
package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/virtus-coach/coach/internal/mcpenvelope"
)

// ErrorCategory distinguishes failure origin for callers that need to
// decide whether to degrade (reads) or fail the turn (writes), per
// spec.md §4.1.
type ErrorCategory string

const (
	Transport ErrorCategory = "TRANSPORT" // connection refused, timeout, DNS
	Protocol  ErrorCategory = "PROTOCOL"  // malformed response body
	Remote    ErrorCategory = "REMOTE"    // tool server returned {error:{code,message}}
)

// Error is the tagged error type every Call failure returns.
type Error struct {
	Category ErrorCategory
	Code     string // populated only for Category == Remote
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("mcpclient: %s %s: %s", e.Category, e.Code, e.Message)
	}
	return fmt.Sprintf("mcpclient: %s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// server identifies which upstream a tool name routes to.
type server string

const (
	dataServer   server = "data"
	promptServer server = "prompt"
)

// routes is the static table mapping every known tool name to its upstream
// server (spec.md §4.1 "static routing table"), grounded on
// original_source/app/coach/mcp_client.py's MCP_TOOL_ROUTES.
var routes = map[string]server{
	"load_context":          dataServer,
	"save_context":          dataServer,
	"save_progress":         dataServer,
	"load_progress":         dataServer,
	"get_recent_activities": dataServer,
	"save_planned_sessions": dataServer,
	"plan_race_build":       dataServer,
	"plan_season":           dataServer,
	"add_workout":           dataServer,

	"load_orchestrator_prompt": promptServer,
	"load_prompt":              promptServer,
}

// Client is the fail-closed MCP boundary. It is constructed once per
// process and shared across conversations; it holds no per-conversation
// state and does no caching or retrying.
type Client struct {
	dataEndpoint   string
	promptEndpoint string
	httpClient     *http.Client
	timeout        time.Duration
}

// New refuses to construct if either endpoint is empty, implementing the
// fail-closed rule (spec.md §4.1, §5, P8).
func New(dataEndpoint, promptEndpoint string, timeout time.Duration) (*Client, error) {
	if dataEndpoint == "" {
		return nil, fmt.Errorf("mcpclient: data_tool_endpoint is not configured")
	}
	if promptEndpoint == "" {
		return nil, fmt.Errorf("mcpclient: prompt_tool_endpoint is not configured")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		dataEndpoint:   dataEndpoint,
		promptEndpoint: promptEndpoint,
		httpClient:     &http.Client{},
		timeout:        timeout,
	}, nil
}

// Call dispatches one tool invocation to its routed upstream, bounded by the
// client's configured timeout. No caching, no retries — see package doc.
func (c *Client) Call(ctx context.Context, toolName string, arguments map[string]any) (map[string]any, error) {
	target, ok := routes[toolName]
	if !ok {
		return nil, &Error{Category: Protocol, Message: fmt.Sprintf("unknown tool %q", toolName)}
	}

	endpoint := c.dataEndpoint
	if target == promptServer {
		endpoint = c.promptEndpoint
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(mcpenvelope.Request{Tool: toolName, Arguments: arguments})
	if err != nil {
		return nil, &Error{Category: Protocol, Message: "encoding request", Cause: err}
	}

	url := endpoint + "/mcp/tools/call"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Category: Transport, Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Category: Transport, Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Category: Transport, Message: "reading response body", Cause: err}
	}

	var envelope mcpenvelope.Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Category: Protocol, Message: "decoding response envelope", Cause: err}
	}

	if envelope.Error != nil {
		return nil, &Error{Category: Remote, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if envelope.Result == nil {
		return nil, &Error{Category: Protocol, Message: "response has neither result nor error"}
	}
	return envelope.Result, nil
}
