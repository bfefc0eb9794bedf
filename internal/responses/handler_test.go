package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizdeck/backend/internal/models"
)

type fakeSessions struct {
	sessions map[uuid.UUID]*models.Session
}

func (f *fakeSessions) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

type fakeQuestions struct {
	questions []models.Question
}

func (f *fakeQuestions) ListQuestions(ctx context.Context, templateID uuid.UUID) ([]models.Question, error) {
	return f.questions, nil
}

type fakeResponseStore struct {
	created []*models.Response
}

func (f *fakeResponseStore) Create(ctx context.Context, resp *models.Response) error {
	resp.ID = uuid.New()
	resp.SubmittedAt = time.Now()
	cp := *resp
	f.created = append(f.created, &cp)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type fixture struct {
	router   *gin.Engine
	store    *fakeResponseStore
	sessions *fakeSessions
	session  *models.Session
	name     models.Question
	color    models.Question
	feedback models.Question
}

// newFixture builds a session over a three-question template: a required
// text question, a required radio question and an optional text question.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	templateID := uuid.New()
	name := models.Question{ID: uuid.New(), TemplateID: templateID, Text: "Your name?", Type: models.QuestionText, Required: true, Position: 0}
	color := models.Question{ID: uuid.New(), TemplateID: templateID, Text: "Favorite color?", Type: models.QuestionRadio, Options: []string{"red", "green", "blue"}, Required: true, Position: 1}
	feedback := models.Question{ID: uuid.New(), TemplateID: templateID, Text: "Anything else?", Type: models.QuestionText, Required: false, Position: 2}

	session := &models.Session{ID: uuid.New(), Code: "AB2D", TemplateID: templateID, Status: models.StatusUnlocked}
	sessions := &fakeSessions{sessions: map[uuid.UUID]*models.Session{session.ID: session}}
	store := &fakeResponseStore{}

	h := NewHandler(store, sessions, &fakeQuestions{questions: []models.Question{name, color, feedback}}, nil)
	r := gin.New()
	r.POST("/quiz/submit", h.Submit)

	return &fixture{router: r, store: store, sessions: sessions, session: session,
		name: name, color: color, feedback: feedback}
}

func (fx *fixture) submit(t *testing.T, body map[string]interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/quiz/submit", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	return w, env
}

func TestSubmitAcceptedAndStored(t *testing.T) {
	fx := newFixture(t)

	w, env := fx.submit(t, map[string]interface{}{
		"session_id":       fx.session.ID.String(),
		"participant_name": "Alice",
		"answers": map[string]string{
			fx.name.ID.String():     "Alice",
			fx.color.ID.String():    "green",
			fx.feedback.ID.String(): "great quiz",
		},
		"time_spent_seconds": 42,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.Response
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == uuid.Nil {
		t.Fatal("response id not assigned")
	}
	if resp.Answers[fx.color.ID.String()] != "green" {
		t.Fatalf("answers not round-tripped: %v", resp.Answers)
	}
	if resp.TimeSpentSeconds == nil || *resp.TimeSpentSeconds != 42 {
		t.Fatalf("time spent not stored: %v", resp.TimeSpentSeconds)
	}
	if len(fx.store.created) != 1 {
		t.Fatalf("expected 1 stored response, got %d", len(fx.store.created))
	}
}

func TestSubmitLockedSessionRejected(t *testing.T) {
	fx := newFixture(t)
	fx.session.Status = models.StatusLocked

	w, env := fx.submit(t, map[string]interface{}{
		"session_id":       fx.session.ID.String(),
		"participant_name": "Bob",
		"answers": map[string]string{
			fx.name.ID.String():  "Bob",
			fx.color.ID.String(): "red",
		},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(env.Error, "not accepting responses") {
		t.Fatalf("unexpected error: %q", env.Error)
	}
	if len(fx.store.created) != 0 {
		t.Fatal("rejected submission was stored")
	}
}

func TestSubmitCompletedSessionRejected(t *testing.T) {
	fx := newFixture(t)
	fx.session.Status = models.StatusCompleted

	w, _ := fx.submit(t, map[string]interface{}{
		"session_id":       fx.session.ID.String(),
		"participant_name": "Bob",
		"answers": map[string]string{
			fx.name.ID.String():  "Bob",
			fx.color.ID.String(): "red",
		},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitMissingRequiredAnswers(t *testing.T) {
	fx := newFixture(t)

	w, env := fx.submit(t, map[string]interface{}{
		"session_id":       fx.session.ID.String(),
		"participant_name": "Carol",
		"answers": map[string]string{
			fx.name.ID.String(): "Carol",
		},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(env.Error, "1 required question(s) unanswered") {
		t.Fatalf("unexpected error: %q", env.Error)
	}
	if !strings.Contains(env.Error, fx.color.ID.String()) {
		t.Fatalf("error does not name the missing question: %q", env.Error)
	}
	if len(fx.store.created) != 0 {
		t.Fatal("incomplete submission was stored")
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	fx := newFixture(t)

	w, _ := fx.submit(t, map[string]interface{}{
		"session_id":       uuid.New().String(),
		"participant_name": "Alice",
		"answers":          map[string]string{},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSubmitMissingFieldsRejected(t *testing.T) {
	fx := newFixture(t)

	// No participant name.
	w, _ := fx.submit(t, map[string]interface{}{
		"session_id": fx.session.ID.String(),
		"answers":    map[string]string{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", w.Code)
	}

	// Malformed session id.
	w, _ = fx.submit(t, map[string]interface{}{
		"session_id":       "not-a-uuid",
		"participant_name": "Alice",
		"answers":          map[string]string{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad session id, got %d", w.Code)
	}
}

func TestSubmitDuplicatesProduceDistinctResponses(t *testing.T) {
	fx := newFixture(t)

	body := map[string]interface{}{
		"session_id":       fx.session.ID.String(),
		"participant_name": "Alice",
		"answers": map[string]string{
			fx.name.ID.String():  "Alice",
			fx.color.ID.String(): "blue",
		},
	}
	_, env1 := fx.submit(t, body)
	_, env2 := fx.submit(t, body)

	var r1, r2 models.Response
	if err := json.Unmarshal(env1.Data, &r1); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := json.Unmarshal(env2.Data, &r2); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if r1.ID == r2.ID {
		t.Fatal("duplicate submissions must produce distinct responses")
	}
	if len(fx.store.created) != 2 {
		t.Fatalf("expected 2 stored responses, got %d", len(fx.store.created))
	}
}
