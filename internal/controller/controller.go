package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/virtus-coach/coach/internal/extraction"
	"github.com/virtus-coach/coach/internal/logging"
	"github.com/virtus-coach/coach/internal/mcpclient"
	"github.com/virtus-coach/coach/internal/slots"
)

// conversationSummaryLimit bounds how many recent messages load_context
// returns for building the rolling summary handed to the extractor
// (spec.md §4.2's conversation_summary_optional, §4.6 load_context).
const conversationSummaryLimit = 6

// ToolCaller is the subset of mcpclient.Client the controller depends on,
// narrowed to an interface so tests can substitute a fake tool server
// without standing up real HTTP servers.
type ToolCaller interface {
	Call(ctx context.Context, toolName string, arguments map[string]any) (map[string]any, error)
}

// Controller drives the per-turn state machine (spec.md §4.3). It holds no
// per-conversation state between calls: LOAD_PROGRESS/PERSIST_PROGRESS
// round-trip through the Tool Client on every turn (spec.md §5).
type Controller struct {
	tools      ToolCaller
	extractor  *extraction.Extractor
	registry   *slots.Registry
	classifier *Classifier
	logger     *logging.Logger
	now        func() time.Time
}

// New builds a Controller. now defaults to time.Now if nil, overridable in
// tests for deterministic date-relative slot parsing.
func New(tools ToolCaller, extractor *extraction.Extractor, registry *slots.Registry, classifier *Classifier, logger *logging.Logger, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{tools: tools, extractor: extractor, registry: registry, classifier: classifier, logger: logger, now: now}
}

// Turn runs INIT→LOAD_PROGRESS→CLASSIFY_TARGET→EXTRACT→MERGE→DECIDE→
// {ASK_ONE|EXECUTE_TOOL|CHAT}→PERSIST_PROGRESS→EMIT_RESPONSE for one user
// message (spec.md §4.3).
func (c *Controller) Turn(ctx context.Context, conversationID, userID, message string) (Response, error) {
	progress, version, err := c.loadProgress(ctx, conversationID)
	if err != nil {
		return Response{}, fmt.Errorf("controller: load progress: %w", err)
	}

	hasPriorPlan, err := c.hasPriorRacePlan(ctx, userID)
	if err != nil {
		return Response{}, fmt.Errorf("controller: checking prior race plan: %w", err)
	}

	target := TargetAction(progress.TargetAction)
	if target == "" || target == ActionNone {
		target = c.classifier.Classify(ctx, message, hasPriorPlan)
		progress.TargetAction = string(target)
		progress.RequiredAttributes = namesToStrings(RequiredAttributes(target))
		progress.OptionalAttributes = namesToStrings(OptionalAttributes(target))
		progress.AwaitingSlots = missingOf(progress.RequiredAttributes, progress.FilledSlots)
	}

	requested := append(append([]slots.Name{}, stringsToNames(progress.RequiredAttributes)...), stringsToNames(progress.OptionalAttributes)...)
	known := map[slots.Name]string{}
	for k, v := range progress.FilledSlots {
		known[slots.Name(k)] = v
	}

	summary, err := c.loadSummary(ctx, conversationID)
	if err != nil {
		return Response{}, fmt.Errorf("controller: load context: %w", err)
	}

	extracted := c.extractor.Extract(message, requested, known, c.now(), summary)

	if progress.FilledSlots == nil {
		progress.FilledSlots = map[string]string{}
	}
	for name, val := range extracted.Values {
		progress.FilledSlots[string(name)] = val
	}
	for name := range extracted.AmbiguousFields {
		delete(progress.FilledSlots, string(name))
	}
	progress.AwaitingSlots = missingOf(progress.RequiredAttributes, progress.FilledSlots)
	for name := range extracted.AmbiguousFields {
		progress.AwaitingSlots = appendUnique(progress.AwaitingSlots, string(name))
	}

	response := c.decide(progress, target)

	if err := validateResponse(response.Text, response.TargetAction, len(progress.AwaitingSlots), response.ShouldExecute); err != nil {
		c.logger.Warn("controller: response validator rejected turn", "rule", err.(*ValidationError).Rule, "conversation_id", conversationID)
		askSlot := slots.Name("")
		if len(progress.AwaitingSlots) > 0 {
			askSlot = slots.Name(progress.AwaitingSlots[0])
		}
		response = Response{
			Text:         fallbackQuestion(askSlot),
			TargetAction: target,
			AskedSlot:    askSlot,
		}
	}
	response.FilledSlots = progress.FilledSlots

	if err := c.persistProgress(ctx, conversationID, progress, version); err != nil {
		return Response{}, fmt.Errorf("controller: persist progress: %w", err)
	}

	if err := c.saveContext(ctx, conversationID, message, response.Text); err != nil && !isTransportError(err) {
		return Response{}, fmt.Errorf("controller: save context: %w", err)
	}

	return response, nil
}

// decide implements DECIDE: ASK_ONE | EXECUTE_TOOL | CHAT.
func (c *Controller) decide(progress Progress, target TargetAction) Response {
	if target == ActionNone {
		return Response{Text: "Let me know what you'd like to work on.", TargetAction: ActionNone, Chat: true}
	}
	if len(progress.AwaitingSlots) > 0 {
		slot := slots.Name(progress.AwaitingSlots[0])
		return Response{
			Text:         capitalize(slotPrompt(slot)),
			TargetAction: target,
			AskedSlot:    slot,
		}
	}
	return Response{
		Text:          "Got it — generating your plan now.",
		TargetAction:  target,
		ShouldExecute: true,
	}
}

func (c *Controller) loadProgress(ctx context.Context, conversationID string) (Progress, int, error) {
	result, err := c.tools.Call(ctx, "load_progress", map[string]any{"conversation_id": conversationID})
	if err != nil {
		if isTransportError(err) {
			return Progress{FilledSlots: map[string]string{}}, 0, nil
		}
		return Progress{}, 0, err
	}
	return decodeProgressResult(result)
}

// loadSummary builds the conversation_summary_optional value from recent
// history (spec.md §4.2, §4.6). A transport failure degrades to an empty
// summary, matching load_progress/get_recent_activities' degrade rule —
// never a direct DB read.
func (c *Controller) loadSummary(ctx context.Context, conversationID string) (string, error) {
	result, err := c.tools.Call(ctx, "load_context", map[string]any{
		"conversation_id": conversationID,
		"limit":           conversationSummaryLimit,
	})
	if err != nil {
		if isTransportError(err) {
			return "", nil
		}
		return "", err
	}
	raw, _ := result["messages"].([]any)
	return summarizeMessages(raw), nil
}

func summarizeMessages(raw []any) string {
	if len(raw) == 0 {
		return ""
	}
	parts := make([]string, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		sender, _ := m["sender"].(string)
		content, _ := m["content"].(string)
		if content == "" {
			continue
		}
		parts = append(parts, sender+": "+content)
	}
	return strings.Join(parts, " | ")
}

// saveContext appends this turn's user/assistant message pair to the
// conversation's history (spec.md §4.6 append_messages), keyed to the
// data-server's save_context tool. A transport failure is tolerated by the
// caller the same way load_progress/load_context degrade — history is a
// derived convenience, not the source of truth for slot state.
func (c *Controller) saveContext(ctx context.Context, conversationID, userMessage, assistantMessage string) error {
	_, err := c.tools.Call(ctx, "save_context", map[string]any{
		"conversation_id":   conversationID,
		"user_message":      userMessage,
		"assistant_message": assistantMessage,
	})
	return err
}

func (c *Controller) persistProgress(ctx context.Context, conversationID string, progress Progress, version int) error {
	_, err := c.tools.Call(ctx, "save_progress", map[string]any{
		"conversation_id": conversationID,
		"progress":        progressToArguments(progress),
		"expected_version": version,
	})
	return err
}

func (c *Controller) hasPriorRacePlan(ctx context.Context, userID string) (bool, error) {
	result, err := c.tools.Call(ctx, "get_recent_activities", map[string]any{"user_id": userID, "days": 0})
	if err != nil {
		if isTransportError(err) {
			return false, nil
		}
		return false, err
	}
	has, _ := result["has_prior_race_plan"].(bool)
	return has, nil
}

func isTransportError(err error) bool {
	mcpErr, ok := err.(*mcpclient.Error)
	return ok && mcpErr.Category == mcpclient.Transport
}

func namesToStrings(names []slots.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func stringsToNames(strs []string) []slots.Name {
	out := make([]slots.Name, len(strs))
	for i, s := range strs {
		out[i] = slots.Name(s)
	}
	return out
}

func missingOf(required []string, filled map[string]string) []string {
	var out []string
	for _, r := range required {
		if _, ok := filled[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func appendUnique(list []string, val string) []string {
	for _, v := range list {
		if v == val {
			return list
		}
	}
	return append(list, val)
}
