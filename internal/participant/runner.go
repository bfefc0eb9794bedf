package participant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/internal/responses"
)

// Submission is the payload a runner sends when submitting.
type Submission struct {
	SessionID        uuid.UUID
	ParticipantName  string
	ParticipantEmail string
	ParticipantPhone string
	Answers          map[string]string
	TimeSpentSeconds int
}

// API is the quiz backend surface the runner needs.
type API interface {
	FetchQuiz(ctx context.Context, code string) (*models.SessionWithTemplate, error)
	SubmitResponse(ctx context.Context, sub Submission) (*models.Response, error)
}

// Config controls a runner. Callbacks are optional and invoked from the
// runner's own goroutine.
type Config struct {
	Code             string
	ParticipantName  string
	ParticipantEmail string
	ParticipantPhone string

	// PollInterval is how often session status/config is re-fetched
	// regardless of timer state. Defaults to 30s.
	PollInterval time.Duration
	// Tick is the countdown resolution. Defaults to 1s.
	Tick time.Duration

	OnUpdate    func(view *models.SessionWithTemplate)
	OnTick      func(remaining time.Duration)
	OnNotice    func(msg string)
	OnSubmitted func(resp *models.Response)
}

// Runner drives one participant's quiz attempt: a cooperative countdown tick
// plus an independent status poll, with auto-submission at expiry. The two
// loops share one goroutine and never block each other; a status change seen
// by the poll does not cancel an in-progress countdown (the server is the
// one that rejects a late submission).
type Runner struct {
	api    API
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	view        *models.SessionWithTemplate
	answers     map[string]string
	startedAt   *time.Time
	submitted   bool
	expiryActed bool
}

// NewRunner creates a runner. Fetch the quiz with Run before calling Begin.
func NewRunner(api API, cfg Config, logger *zap.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		api:     api,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		answers: make(map[string]string),
	}
}

// Run fetches the quiz, then loops polling and ticking until ctx is done or
// a submission succeeds. The initial fetch failing is fatal; later poll
// failures are swallowed and retried on the next interval.
func (r *Runner) Run(ctx context.Context) error {
	view, err := r.api.FetchQuiz(ctx, r.cfg.Code)
	if err != nil {
		return fmt.Errorf("fetch quiz: %w", err)
	}
	r.setView(view)

	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	tick := time.NewTicker(r.cfg.Tick)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			r.poll(ctx)
		case <-tick.C:
			if r.tickOnce(ctx) {
				return nil
			}
		}
	}
}

// Begin marks the participant's explicit start; the countdown runs from this
// instant, not from page load.
func (r *Runner) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		return errors.New("quiz not loaded")
	}
	if r.startedAt != nil {
		return errors.New("already started")
	}
	now := r.now()
	r.startedAt = &now
	return nil
}

// SetAnswer records the participant's answer for a question.
func (r *Runner) SetAnswer(questionID uuid.UUID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[questionID.String()] = text
}

// Remaining returns the countdown left, or false if no limit applies or the
// quiz has not been started.
func (r *Runner) Remaining() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit := r.limitLocked()
	if limit <= 0 || r.startedAt == nil {
		return 0, false
	}
	return Remaining(*r.startedAt, r.now(), limit), true
}

// MissingRequired returns required questions still unanswered, in position order.
func (r *Runner) MissingRequired() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		return nil
	}
	return responses.MissingRequired(r.view.Template.Questions, r.answers)
}

// View returns the last fetched quiz view.
func (r *Runner) View() *models.SessionWithTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Submit sends the collected answers. Required questions must all be
// answered; otherwise a *models.IncompleteAnswersError is returned without
// contacting the server. A successful submission cancels the countdown.
func (r *Runner) Submit(ctx context.Context) (*models.Response, error) {
	r.mu.Lock()
	if r.view == nil {
		r.mu.Unlock()
		return nil, errors.New("quiz not loaded")
	}
	if r.submitted {
		r.mu.Unlock()
		return nil, errors.New("already submitted")
	}
	if missing := responses.MissingRequired(r.view.Template.Questions, r.answers); len(missing) > 0 {
		r.mu.Unlock()
		return nil, &models.IncompleteAnswersError{Missing: missing}
	}
	sub := Submission{
		SessionID:        r.view.ID,
		ParticipantName:  r.cfg.ParticipantName,
		ParticipantEmail: r.cfg.ParticipantEmail,
		ParticipantPhone: r.cfg.ParticipantPhone,
		Answers:          copyAnswers(r.answers),
	}
	if r.startedAt != nil {
		sub.TimeSpentSeconds = int(r.now().Sub(*r.startedAt) / time.Second)
	}
	r.mu.Unlock()

	resp, err := r.api.SubmitResponse(ctx, sub)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.submitted = true
	r.mu.Unlock()
	if r.cfg.OnSubmitted != nil {
		r.cfg.OnSubmitted(resp)
	}
	return resp, nil
}

// poll re-fetches session status/config. Failures are logged and retried on
// the next interval; they are not surfaced to the participant.
func (r *Runner) poll(ctx context.Context) {
	view, err := r.api.FetchQuiz(ctx, r.cfg.Code)
	if err != nil {
		r.logger.Debug("poll failed", zap.Error(err))
		return
	}
	r.setView(view)
}

// tickOnce advances the countdown; returns true once a submission succeeded
// and the runner should stop.
func (r *Runner) tickOnce(ctx context.Context) bool {
	r.mu.Lock()
	if r.submitted {
		r.mu.Unlock()
		return true
	}
	limit := r.limitLocked()
	if r.startedAt == nil || limit <= 0 {
		r.mu.Unlock()
		return false
	}
	startedAt := *r.startedAt
	expired := Expired(startedAt, r.now(), limit)
	acted := r.expiryActed
	if expired {
		r.expiryActed = true
	}
	remaining := Remaining(startedAt, r.now(), limit)
	r.mu.Unlock()

	if r.cfg.OnTick != nil {
		r.cfg.OnTick(remaining)
	}
	if expired && !acted {
		r.autoSubmit(ctx)
	}
	r.mu.Lock()
	done := r.submitted
	r.mu.Unlock()
	return done
}

// autoSubmit fires at countdown expiry with whatever answers were collected.
// Missing required answers refuse the attempt and notify the participant
// instead of silently dropping it.
func (r *Runner) autoSubmit(ctx context.Context) {
	resp, err := r.Submit(ctx)
	if err != nil {
		var incomplete *models.IncompleteAnswersError
		if errors.As(err, &incomplete) {
			r.notify(fmt.Sprintf("time is up: %d required question(s) still unanswered", len(incomplete.Missing)))
			return
		}
		r.notify("time is up: submission failed: " + err.Error())
		return
	}
	r.logger.Info("auto-submitted", zap.String("response_id", resp.ID.String()))
}

func (r *Runner) notify(msg string) {
	if r.cfg.OnNotice != nil {
		r.cfg.OnNotice(msg)
	}
}

func (r *Runner) setView(view *models.SessionWithTemplate) {
	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
	if r.cfg.OnUpdate != nil {
		r.cfg.OnUpdate(view)
	}
}

func (r *Runner) limitLocked() time.Duration {
	if r.view == nil || r.view.TimeLimitMinutes == nil {
		return 0
	}
	return time.Duration(*r.view.TimeLimitMinutes) * time.Minute
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
