package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository"
	"github.com/stemsi/marksheet-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []feed.Kind
}

func (n *recordingNotifier) Notify(_ context.Context, kind feed.Kind) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return nil
}

type fixture struct {
	students *StudentService
	subjects *SubjectService
	reports  *ReportService
	exports  *ExportService
	auth     *AuthService
	notes    *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	studentRepo := memory.NewStudentRepository(db)
	subjectRepo := memory.NewSubjectRepository(db)
	notes := &recordingNotifier{}
	composer := marks.NewComposer(language.English)
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		BcryptCost:    4,
		InstituteName: "Test Institute",
	}
	log := zerolog.Nop()

	return &fixture{
		students: NewStudentService(studentRepo, subjectRepo, notes, composer, log),
		subjects: NewSubjectService(subjectRepo, notes, language.English, log),
		reports:  NewReportService(studentRepo, subjectRepo, composer),
		exports:  NewExportService(studentRepo, subjectRepo, composer, cfg),
		auth:     NewAuthService(cfg, memory.NewUserRepository(db), memory.NewSessionRepository(db)),
		notes:    notes,
	}
}

func (f *fixture) seedSubjects(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := f.subjects.Create(context.Background(), n)
		require.NoError(t, err)
	}
}

func TestStudentCreateNormalisesMarks(t *testing.T) {
	f := newFixture(t)
	f.seedSubjects(t, "Math", "Science", "English")

	s, err := f.students.Create(context.Background(), 1, model.SaveStudentRequest{
		Name:   "  Alice ",
		RollNo: " 12 ",
		Marks:  map[string]any{"Math": "90", "Science": 80.0, "History": 100},
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", s.Name)
	assert.Equal(t, "12", s.RollNo)
	assert.Equal(t, map[string]float64{"Math": 90, "Science": 80, "English": 0}, s.Marks)
	assert.Equal(t, 170.0, s.Total)
	assert.Equal(t, 56.67, s.Percentage)
	require.NotNil(t, s.CreatedBy)
	assert.Equal(t, 1, *s.CreatedBy)
	assert.Contains(t, f.notes.kinds, feed.KindStudents)
}

func TestStudentCreateWithoutSubjects(t *testing.T) {
	f := newFixture(t)

	s, err := f.students.Create(context.Background(), 1, model.SaveStudentRequest{Name: "Solo", RollNo: "1"})
	require.NoError(t, err)
	assert.Empty(t, s.Marks)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Percentage)
}

func TestStudentCreateRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Alice", RollNo: "1"})
	require.NoError(t, err)

	_, err = f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "ALICE", RollNo: "2"})
	assert.ErrorIs(t, err, ErrDuplicateStudent)

	_, err = f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Bob", RollNo: " 1"})
	assert.ErrorIs(t, err, ErrDuplicateStudent)
}

func TestStudentUpdateKeepsCreationMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSubjects(t, "Math")

	created, err := f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Alice", RollNo: "1", Marks: map[string]any{"Math": 50}})
	require.NoError(t, err)

	updated, err := f.students.Update(ctx, 2, created.ID, model.SaveStudentRequest{Name: "Alice", RollNo: "1", Marks: map[string]any{"Math": 75}})
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.Total)
	assert.Equal(t, 75.0, updated.Percentage)
	assert.Equal(t, 1, *updated.CreatedBy)
	assert.Equal(t, 2, *updated.UpdatedBy)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = f.students.Update(ctx, 2, uuid.New(), model.SaveStudentRequest{Name: "X", RollNo: "9"})
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)
}

func TestStudentUpdateDropsDeletedSubjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSubjects(t, "Math", "Art")

	created, err := f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Alice", RollNo: "1", Marks: map[string]any{"Math": 60, "Art": 40}})
	require.NoError(t, err)

	subs, err := f.subjects.List(ctx, OrderCreated)
	require.NoError(t, err)
	require.NoError(t, f.subjects.Delete(ctx, subs[1].ID))

	// Orphaned marks stay until the next save.
	stored, err := f.students.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Marks, "Art")

	updated, err := f.students.Update(ctx, 1, created.ID, model.SaveStudentRequest{Name: "Alice", RollNo: "1", Marks: map[string]any{"Math": 60, "Art": 40}})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Math": 60}, updated.Marks)
	assert.Equal(t, 60.0, updated.Percentage)
}

func TestStudentListAppliesView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, r := range []model.SaveStudentRequest{
		{Name: "Charlie", RollNo: "10"},
		{Name: "alice", RollNo: "2"},
		{Name: "Bob", RollNo: "1"},
	} {
		_, err := f.students.Create(ctx, 1, r)
		require.NoError(t, err)
	}

	list, err := f.students.List(ctx, marks.NewViewQuery("", "", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "alice", "Charlie"}, names(list))

	list, err = f.students.List(ctx, marks.NewViewQuery("LI", "name", "desc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie", "alice"}, names(list))
}

func TestStudentDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Alice", RollNo: "1"})
	require.NoError(t, err)
	require.NoError(t, f.students.Delete(ctx, s.ID))
	assert.ErrorIs(t, f.students.Delete(ctx, s.ID), repository.ErrStudentNotFound)
}

func TestStudentPreview(t *testing.T) {
	f := newFixture(t)
	totals := f.students.Preview(map[string]any{"Math": "45", "Science": "", "English": 60})
	assert.Equal(t, 105.0, totals.Total)
	assert.Equal(t, 35.0, totals.Percentage)
}

func TestLoadSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSubjects(t, "Math")
	_, err := f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Alice", RollNo: "1"})
	require.NoError(t, err)

	snap, err := f.students.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Students, 1)
	assert.Equal(t, []string{"Math"}, model.SubjectNames(snap.Subjects))
	assert.False(t, snap.At.IsZero())
}

func TestSubjectService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.subjects.Create(ctx, "   ")
	assert.ErrorIs(t, err, ErrSubjectNameRequired)

	f.seedSubjects(t, "Science", "art", "Math")
	_, err = f.subjects.Create(ctx, " math ")
	assert.ErrorIs(t, err, repository.ErrDuplicateSubject)

	created, err := f.subjects.List(ctx, OrderCreated)
	require.NoError(t, err)
	assert.Equal(t, []string{"Science", "art", "Math"}, model.SubjectNames(created))

	byName, err := f.subjects.List(ctx, OrderName)
	require.NoError(t, err)
	assert.Equal(t, []string{"art", "Math", "Science"}, model.SubjectNames(byName))

	assert.Equal(t, []feed.Kind{feed.KindSubjects, feed.KindSubjects, feed.KindSubjects}, f.notes.kinds)
}

func TestReportChartFollowsView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSubjects(t, "Math", "Science")
	for _, r := range []model.SaveStudentRequest{
		{Name: "Alice", RollNo: "1", Marks: map[string]any{"Math": 90, "Science": 70}},
		{Name: "Bob", RollNo: "2", Marks: map[string]any{"Math": 60, "Science": 100}},
		{Name: "Carl", RollNo: "3", Marks: map[string]any{"Math": 10, "Science": 20}},
	} {
		_, err := f.students.Create(ctx, 1, r)
		require.NoError(t, err)
	}

	chart, err := f.reports.Chart(ctx, marks.NewViewQuery("", "", ""), marks.ChartByPercentage)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Carl"}, chart.Performance.Labels)
	require.NotNil(t, chart.Topper)
	assert.Equal(t, "Alice", chart.Topper.Name)

	chart, err = f.reports.Chart(ctx, marks.NewViewQuery("carl", "", ""), marks.ChartByName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carl"}, chart.Performance.Labels)
	assert.Equal(t, []marks.SubjectAverage{{Subject: "Math", Average: 10}, {Subject: "Science", Average: 20}}, chart.SubjectAverages)
	assert.Equal(t, 15.0, chart.OverallAverage)
}

func TestExportMarksheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSubjects(t, "Math")
	_, err := f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Bob", RollNo: "2"})
	require.NoError(t, err)
	_, err = f.students.Create(ctx, 1, model.SaveStudentRequest{Name: "Alice", RollNo: "1"})
	require.NoError(t, err)

	m, err := f.exports.Marksheet(ctx, marks.NewViewQuery("", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "Test Institute", m.Institute)
	assert.Equal(t, []string{"Math"}, m.Subjects)
	assert.Equal(t, []string{"Alice", "Bob"}, names(m.Students))
}

func TestAuthSignupLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Signup(ctx, model.SignupRequest{Email: "Teach@Example.com", Name: "Teacher", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "teach@example.com", res.User.Email)
	assert.Equal(t, model.RoleTeacher, res.User.Role)
	assert.ElementsMatch(t, model.RoleTeacher.Permissions(), res.Permissions)

	_, err = f.auth.Signup(ctx, model.SignupRequest{Email: "teach@example.com", Name: "Other", Password: "secret1"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	_, err = f.auth.Login(ctx, model.LoginRequest{Email: "teach@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := f.auth.Login(ctx, model.LoginRequest{Email: "teach@example.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := f.auth.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, model.RoleTeacher, claims.Role)
	require.NoError(t, f.auth.ValidateSession(ctx, claims))

	me, err := f.auth.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "Teacher", me.Name)

	require.NoError(t, f.auth.Logout(ctx, claims))
	assert.ErrorIs(t, f.auth.ValidateSession(ctx, claims), ErrSessionRevoked)
}

func TestAuthRejectsForeignTokens(t *testing.T) {
	f := newFixture(t)
	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour, BcryptCost: 4}, nil, nil)

	token, _, err := other.GenerateToken(&model.User{ID: 1, Role: model.RoleAdmin}, model.RoleAdmin.Permissions())
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestCreateUserInvalidRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.CreateUser(context.Background(), "a@b.co", "A", "secret1", model.Role("root"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func names(students []model.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Name)
	}
	return out
}
