package onboarding

import (
	"context"
	"log/slog"
	"strings"

	"buildfund/documents"
	"buildfund/verification"
)

// DocumentChecker reports the user's document completeness for the gate at
// documents_collection.
type DocumentChecker interface {
	Checklist(ctx context.Context, userID, role string, collected map[string]any) (documents.Checklist, error)
}

// Engine is the conversation state machine. Given the current step, the raw
// input, the role and the accumulated data it produces the next step and
// mutates the session's data in place. It never returns errors to the
// caller: unparseable input re-issues the same step and gateway failures
// degrade to unverified results.
type Engine struct {
	catalog  *Catalog
	gateway  verification.Gateway
	docs     DocumentChecker
	handlers map[string]handlerFunc
	logger   *slog.Logger
}

// handlerFunc consumes one user input at one step and returns the next step.
type handlerFunc func(ctx context.Context, t *turn) string

// turn bundles the per-turn state handed to handlers.
type turn struct {
	sess  *Session
	role  Role
	input string
	seq   []string
	index int
}

// NewEngine wires the step handlers. The gateway and document checker are
// optional: absent collaborators degrade per the error taxonomy instead of
// blocking the dialogue.
func NewEngine(catalog *Catalog, gateway verification.Gateway, docs DocumentChecker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		catalog: catalog,
		gateway: gateway,
		docs:    docs,
		logger:  logger,
	}
	e.handlers = e.buildHandlers()
	return e
}

var skipCommands = map[string]bool{
	"skip":           true,
	"none":           true,
	"n/a":            true,
	"not applicable": true,
}

var pauseCommands = map[string]bool{
	"maybe later": true,
	"later":       true,
	"not now":     true,
}

// Process runs one turn of the state machine. The session's CurrentStep,
// Data and PendingSteps are mutated; persisting them is the caller's job.
func (e *Engine) Process(ctx context.Context, sess *Session, role Role, input string) string {
	seq := e.catalog.Sequence(role)
	current := sess.CurrentStep
	if current == "" {
		current = StepWelcome
	}

	t := &turn{
		sess:  sess,
		role:  role,
		input: strings.TrimSpace(input),
		seq:   seq,
		index: e.catalog.IndexOf(role, current),
	}

	// Universal commands take priority over step semantics.
	normalized := strings.ToLower(t.input)
	if skipCommands[normalized] {
		return e.advanceStatic(t)
	}
	if pauseCommands[normalized] {
		return StepPaused
	}

	if handler, ok := e.handlers[current]; ok {
		return handler(ctx, t)
	}

	return e.advanceStatic(t)
}

// advanceStatic moves one step along the static sequence, to complete at the
// end. Pending sub-flow steps take priority over the static cursor.
func (e *Engine) advanceStatic(t *turn) string {
	if next, ok := e.popPending(t); ok {
		return next
	}
	if t.index < len(t.seq)-1 {
		return t.seq[t.index+1]
	}
	return StepComplete
}

// popPending consumes the head of the session's injected sub-flow queue.
func (e *Engine) popPending(t *turn) (string, bool) {
	pending := t.sess.PendingSteps
	if len(pending) == 0 {
		return "", false
	}

	// When the current step is the queue head, finishing it consumes the
	// entry; otherwise the head is simply the next stop.
	if pending[0] == t.sess.CurrentStep {
		t.sess.PendingSteps = pending[1:]
		if len(t.sess.PendingSteps) > 0 {
			return t.sess.PendingSteps[0], true
		}
		return e.afterSubFlow(t), true
	}
	return pending[0], true
}

// afterSubFlow resumes the static sequence once an injected sub-flow drains.
// Sub-flows are only spliced at funding type selection, so the resume point
// is the step after it.
func (e *Engine) afterSubFlow(t *turn) string {
	idx := e.catalog.IndexOf(t.role, StepFundingTypeSelection)
	if idx < len(t.seq)-1 {
		return t.seq[idx+1]
	}
	return StepComplete
}

// documentsComplete evaluates the gate at documents_collection. Checker
// failure is treated as incomplete so the gate never advances on stale or
// unknown state.
func (e *Engine) documentsComplete(ctx context.Context, sess *Session, role Role) (documents.Checklist, bool) {
	if e.docs == nil {
		return documents.Checklist{}, false
	}
	checklist, err := e.docs.Checklist(ctx, sess.UserID, string(role), sess.Data)
	if err != nil {
		e.logger.Warn("document checklist failed", "user_id", sess.UserID, "error", err)
		return documents.Checklist{}, false
	}
	return checklist, checklist.AllUploaded
}

// DocumentsSatisfied reports whether the user's checklist is fully uploaded.
func (e *Engine) DocumentsSatisfied(ctx context.Context, sess *Session, role Role) bool {
	_, ok := e.documentsComplete(ctx, sess, role)
	return ok
}

func (e *Engine) verifyAddress(ctx context.Context, line1, postcode, town, country string) verification.AddressResult {
	if e.gateway == nil {
		return verification.UnavailableAddress()
	}
	return e.gateway.VerifyAddress(ctx, line1, postcode, town, country)
}

func (e *Engine) verifyCompany(ctx context.Context, number, name string) verification.CompanyResult {
	if e.gateway == nil {
		return verification.UnavailableCompany()
	}
	return e.gateway.VerifyCompany(ctx, number, name)
}

func (e *Engine) verifyDirector(ctx context.Context, number, name, dob string) verification.DirectorResult {
	if e.gateway == nil {
		return verification.UnavailableDirector()
	}
	return e.gateway.VerifyDirector(ctx, number, name, dob)
}
