package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/internal/responses"
	"github.com/quizdeck/backend/internal/sessions"
	"github.com/quizdeck/backend/internal/templates"
	"github.com/quizdeck/backend/pkg/database"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	templateRepo := templates.NewRepository(pool)
	sessionRepo := sessions.NewRepository(pool)
	responseRepo := responses.NewRepository(pool)

	// Organizer authors a template.
	tmpl := &models.Template{
		Name:        "Onboarding Quiz",
		Description: "first-day questions",
		Questions: []models.Question{
			{Text: "Your name?", Type: models.QuestionText, Required: true},
			{Text: "Office?", Type: models.QuestionDropdown, Options: []string{"Berlin", "Lisbon"}, Required: true},
			{Text: "Anything else?", Type: models.QuestionText},
		},
	}
	if err := templateRepo.Create(ctx, tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	loaded, err := templateRepo.GetByID(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if len(loaded.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(loaded.Questions))
	}
	for i, q := range loaded.Questions {
		if q.Position != i {
			t.Fatalf("question %d stored at position %d", i, q.Position)
		}
	}
	if got := loaded.Questions[1].Options; len(got) != 2 || got[0] != "Berlin" {
		t.Fatalf("options not round-tripped: %v", got)
	}

	// Launch a session with a join code.
	code, err := sessions.GenerateUniqueCode(ctx, sessionRepo.CodeExists)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	limit := 10
	session := &models.Session{
		Code:             code,
		TemplateID:       tmpl.ID,
		Status:           sessions.InitialStatus(nil),
		TimeLimitMinutes: &limit,
	}
	if err := sessionRepo.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Status != models.StatusUnlocked {
		t.Fatalf("expected unlocked, got %s", session.Status)
	}

	// The join code is claimed; a duplicate insert must fail.
	dup := &models.Session{Code: code, TemplateID: tmpl.ID, Status: models.StatusUnlocked}
	if err := sessionRepo.Create(ctx, dup); err == nil {
		t.Fatal("duplicate code insert must fail")
	}

	// Participant lookup by code, case-insensitive.
	found, err := sessionRepo.GetByCode(ctx, strings.ToLower(code))
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if found.ID != session.ID {
		t.Fatalf("wrong session: %s", found.ID)
	}

	// Submit a response.
	questions, err := templateRepo.ListQuestions(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	answers := map[string]string{
		questions[0].ID.String(): "Alice",
		questions[1].ID.String(): "Berlin",
	}
	if err := responses.ValidateAdmission(found, questions, answers); err != nil {
		t.Fatalf("admission: %v", err)
	}
	spent := 61
	resp := &models.Response{
		SessionID:        session.ID,
		ParticipantName:  "Alice",
		Answers:          answers,
		TimeSpentSeconds: &spent,
	}
	if err := responseRepo.Create(ctx, resp); err != nil {
		t.Fatalf("create response: %v", err)
	}

	// Lock the session; late submissions are refused at admission.
	locked := models.StatusLocked
	if err := sessions.Apply(found, sessions.UpdatePatch{Status: &locked}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := sessionRepo.Update(ctx, found); err != nil {
		t.Fatalf("update session: %v", err)
	}
	reread, err := sessionRepo.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if err := responses.ValidateAdmission(reread, questions, answers); err != models.ErrNotAcceptingResponses {
		t.Fatalf("expected ErrNotAcceptingResponses, got %v", err)
	}

	// Organizer review sees the stored response with answers intact.
	list, err := responseRepo.ListBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 response, got %d", len(list))
	}
	if list[0].Answers[questions[1].ID.String()] != "Berlin" {
		t.Fatalf("answers not persisted: %v", list[0].Answers)
	}
	if list[0].TimeSpentSeconds == nil || *list[0].TimeSpentSeconds != 61 {
		t.Fatalf("time spent not persisted: %v", list[0].TimeSpentSeconds)
	}

	count, err := responseRepo.CountBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("count responses: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestQuizLookupCacheAgainstRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	addr, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	cache := sessions.NewCache(client, 2*time.Second, nil)
	templateID := uuid.New()
	view := &models.SessionWithTemplate{
		Session:  models.Session{ID: uuid.New(), Code: "AB2D", TemplateID: templateID, Status: models.StatusUnlocked},
		Template: models.Template{ID: templateID, Name: "Onboarding Quiz"},
	}
	cache.Set(ctx, view)

	got := cache.Get(ctx, "ab2d")
	if got == nil || got.Template.Name != "Onboarding Quiz" {
		t.Fatalf("expected cache hit, got %+v", got)
	}

	cache.Invalidate(ctx, "AB2D")
	if got := cache.Get(ctx, "AB2D"); got != nil {
		t.Fatalf("expected miss after invalidate, got %+v", got)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
