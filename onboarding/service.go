package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// welcomeBackFormat carries the stored completion percentage; the dedup scan
// in hasWelcomeBack keys on the "Welcome back" prefix.
const welcomeBackFormat = "Welcome back! You're %d%% of the way through. Let's pick up where you left off."

// turnFaultMessage is surfaced when a handler panics mid-turn. The session is
// left at its pre-turn step so the user can simply answer again.
const turnFaultMessage = "something went wrong processing that message, please try again"

// ConversationService drives the chat loop: it owns session lifecycle,
// delegates each turn to the engine and keeps the progress aggregate in sync.
type ConversationService struct {
	engine   *Engine
	renderer *Renderer
	tracker  *Tracker
	sessions SessionRepository
	progress ProgressRepository
	logger   *slog.Logger
	now      func() time.Time
	idGen    func() string
}

// NewConversationService creates the service with production defaults.
func NewConversationService(engine *Engine, renderer *Renderer, tracker *Tracker, sessions SessionRepository, progress ProgressRepository, logger *slog.Logger) *ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{
		engine:   engine,
		renderer: renderer,
		tracker:  tracker,
		sessions: sessions,
		progress: progress,
		logger:   logger,
		now:      time.Now,
		idGen:    uuid.NewString,
	}
}

// WithNow overrides the clock, for tests.
func (s *ConversationService) WithNow(now func() time.Time) *ConversationService {
	s.now = now
	return s
}

// WithIDGen overrides session id generation, for tests.
func (s *ConversationService) WithIDGen(gen func() string) *ConversationService {
	s.idGen = gen
	return s
}

// StartOrResume opens the conversation for a user: it reuses the active
// session when one exists (resuming mid-dialogue, including out of a paused
// state) and creates a fresh one otherwise. Calling it repeatedly is
// idempotent; the welcome-back marker is inserted at most once.
func (s *ConversationService) StartOrResume(ctx context.Context, userID string, role Role, sessionID string) (TurnResponse, error) {
	prog := s.loadProgress(ctx, userID)

	sess, created, err := s.findOrCreateSession(ctx, userID, sessionID, prog.CurrentStep)
	if err != nil {
		return TurnResponse{}, err
	}

	if sess.CurrentStep == StepPaused {
		sess.CurrentStep = resumeStep(prog)
	}
	if prog.IsComplete {
		sess.CurrentStep = StepComplete
	}

	resuming := !created && prog.CompletionPercentage > 0 && len(sess.History) > 0
	if resuming && !hasWelcomeBack(sess.History) {
		s.appendBot(&sess, fmt.Sprintf(welcomeBackFormat, prog.CompletionPercentage))
	}

	sess.LastActivity = s.now()
	if err := s.saveSession(ctx, sess, created); err != nil {
		return TurnResponse{}, err
	}

	prog.CurrentStep = sess.CurrentStep
	question := s.render(sess.CurrentStep, role, sess.Data)
	question.ProgressPercent = prog.CompletionPercentage
	return TurnResponse{
		SessionID: sess.ID,
		Question:  question,
		Progress:  prog,
		History:   sess.History,
		Resuming:  resuming,
	}, nil
}

// HandleMessage runs one full turn: record the user's message, advance the
// state machine, recompute progress and render the next question. A handler
// panic is contained at this boundary; the turn returns a structured error
// with the pre-turn question instead of propagating the fault.
func (s *ConversationService) HandleMessage(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	sess, created, err := s.findOrCreateSession(ctx, req.UserID, req.SessionID, "")
	if err != nil {
		return TurnResponse{}, err
	}

	prog := s.loadProgress(ctx, req.UserID)

	// A message arriving while paused implicitly resumes at the stored
	// position before it is processed.
	if sess.CurrentStep == StepPaused {
		sess.CurrentStep = resumeStep(prog)
	}
	priorStep := sess.CurrentStep

	s.appendUser(&sess, req.Message)

	next, fault := s.processSafely(ctx, &sess, req.Role, req.Message)
	if !fault {
		sess.CurrentStep = next
	}
	sess.Active = sess.CurrentStep != StepComplete
	sess.LastActivity = s.now()

	docsOK := s.engine.DocumentsSatisfied(ctx, &sess, req.Role)
	s.tracker.Recompute(&prog, sess.Data, docsOK)
	if sess.CurrentStep == StepPaused {
		// Pausing parks the session but the aggregate keeps the pre-pause
		// position: resumeStep reads it when the user comes back.
		prog.CurrentStep = priorStep
	} else {
		prog.CurrentStep = sess.CurrentStep
	}
	if err := s.progress.Upsert(ctx, prog); err != nil {
		return TurnResponse{}, fmt.Errorf("onboarding: save progress: %w", err)
	}

	renderStep := sess.CurrentStep
	if renderStep == StepPaused {
		renderStep = priorStep
	}
	question := s.render(renderStep, req.Role, sess.Data)
	question.ProgressPercent = prog.CompletionPercentage
	s.appendBot(&sess, question.Question)

	if err := s.saveSession(ctx, sess, created); err != nil {
		return TurnResponse{}, err
	}

	resp := TurnResponse{
		SessionID: sess.ID,
		Question:  question,
		Progress:  prog,
		History:   sess.History,
	}
	if fault {
		resp.Err = turnFaultMessage
	}
	return resp, nil
}

// Progress returns the user's completion aggregate, a zero-value record for
// users who have not started.
func (s *ConversationService) Progress(ctx context.Context, userID string) (Progress, error) {
	prog, err := s.progress.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProgressNotFound) {
			return Progress{UserID: userID, CurrentStep: StepWelcome, LastUpdated: s.now()}, nil
		}
		return Progress{}, err
	}
	return prog, nil
}

// processSafely runs the engine with panic containment. The returned bool is
// true when the turn faulted; the session step is then left unchanged.
func (s *ConversationService) processSafely(ctx context.Context, sess *Session, role Role, input string) (next string, fault bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("turn panic",
				"session_id", sess.ID,
				"user_id", sess.UserID,
				"step", sess.CurrentStep,
				"panic", fmt.Sprint(r))
			next, fault = sess.CurrentStep, true
		}
	}()
	return s.engine.Process(ctx, sess, role, input), false
}

// findOrCreateSession resolves the working session. Missing or foreign
// session ids are recoverable: the service falls back to the user's active
// session or transparently creates a new one at startStep.
func (s *ConversationService) findOrCreateSession(ctx context.Context, userID, sessionID, startStep string) (Session, bool, error) {
	if sessionID != "" {
		sess, err := s.sessions.GetByID(ctx, sessionID)
		if err == nil && sess.UserID == userID {
			return sess, false, nil
		}
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			return Session{}, false, fmt.Errorf("onboarding: load session: %w", err)
		}
	}

	sess, err := s.sessions.GetActiveByUser(ctx, userID)
	if err == nil {
		return sess, false, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return Session{}, false, fmt.Errorf("onboarding: load active session: %w", err)
	}

	if startStep == "" || startStep == StepPaused {
		startStep = StepWelcome
	}
	now := s.now()
	created := Session{
		ID:           s.idGen(),
		UserID:       userID,
		CurrentStep:  startStep,
		Data:         NewCollectedData(),
		Active:       true,
		StartedAt:    now,
		LastActivity: now,
	}
	return created, true, nil
}

func (s *ConversationService) saveSession(ctx context.Context, sess Session, created bool) error {
	var err error
	if created {
		err = s.sessions.Create(ctx, sess)
	} else {
		err = s.sessions.Update(ctx, sess)
	}
	if err != nil {
		return fmt.Errorf("onboarding: save session: %w", err)
	}
	return nil
}

func (s *ConversationService) loadProgress(ctx context.Context, userID string) Progress {
	prog, err := s.progress.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrProgressNotFound) {
			s.logger.Warn("load progress failed", "user_id", userID, "error", err)
		}
		return Progress{UserID: userID, CurrentStep: StepWelcome, StartedAt: s.now()}
	}
	return prog
}

// render produces the question for a step, falling back to the welcome
// prompt when the step id is unknown.
func (s *ConversationService) render(stepID string, role Role, data CollectedData) QuestionDescriptor {
	q, ok := s.renderer.Render(stepID, role, data)
	if ok {
		return q
	}
	s.logger.Warn("unknown step, rendering welcome", "step", stepID)
	q, _ = s.renderer.Render(StepWelcome, role, data)
	return q
}

func (s *ConversationService) appendUser(sess *Session, text string) {
	sess.History = append(sess.History, Message{Type: speakerUser, Message: text, Timestamp: s.now()})
}

func (s *ConversationService) appendBot(sess *Session, text string) {
	sess.History = append(sess.History, Message{Type: speakerBot, Message: text, Timestamp: s.now()})
}

func hasWelcomeBack(history []Message) bool {
	for _, m := range history {
		if m.Type == speakerBot && strings.HasPrefix(m.Message, "Welcome back") {
			return true
		}
	}
	return false
}

// resumeStep picks where a paused conversation restarts.
func resumeStep(prog Progress) string {
	if prog.CurrentStep != "" && prog.CurrentStep != StepPaused {
		return prog.CurrentStep
	}
	return StepWelcome
}
