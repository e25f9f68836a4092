package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/handler"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository/memory"
	"github.com/stemsi/marksheet-backend/internal/service"
	"github.com/stemsi/marksheet-backend/internal/validator"
	ws "github.com/stemsi/marksheet-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
)

type testApp struct {
	router *gin.Engine
	auth   *service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:        gin.TestMode,
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		BcryptCost:     4,
		InstituteName:  "Test Institute",
		LoginRateLimit: 0,
	}
	log := zerolog.Nop()

	db := memory.NewDB()
	studentRepo := memory.NewStudentRepository(db)
	subjectRepo := memory.NewSubjectRepository(db)
	bus := feed.NewLocalBus()
	composer := marks.NewComposer(language.English)

	authService := service.NewAuthService(cfg, memory.NewUserRepository(db), memory.NewSessionRepository(db))
	studentService := service.NewStudentService(studentRepo, subjectRepo, bus, composer, log)
	subjectService := service.NewSubjectService(subjectRepo, bus, language.English, log)

	handlers := &Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Student: handler.NewStudentHandler(studentService),
		Subject: handler.NewSubjectHandler(subjectService),
		Report:  handler.NewReportHandler(service.NewReportService(studentRepo, subjectRepo, composer)),
		Export:  handler.NewExportHandler(service.NewExportService(studentRepo, subjectRepo, composer, cfg)),
		WS:      handler.NewWSHandler(feed.New(bus, studentService, log), composer, log, nil),
	}

	return &testApp{router: SetupRouter(authService, handlers, cfg), auth: authService}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testApp) signup(t *testing.T, email string) string {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": email, "name": "Teacher", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func (a *testApp) viewerToken(t *testing.T) string {
	t.Helper()
	_, err := a.auth.CreateUser(context.Background(), "viewer@example.com", "Viewer", "secret1", model.RoleViewer)
	require.NoError(t, err)
	res, err := a.auth.Login(context.Background(), model.LoginRequest{Email: "viewer@example.com", Password: "secret1"})
	require.NoError(t, err)
	return res.Token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w, _ := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "bad", "name": " ", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "email")
	assert.Contains(t, env.Error.Fields, "name")
	assert.Contains(t, env.Error.Fields, "password")

	token := app.signup(t, "t@example.com")

	w, env = app.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "T@example.com", "name": "Again", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", env.Error.Code)

	w, env = app.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "t@example.com", "password": "wrong12"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	w, env = app.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"email":"t@example.com"`)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = app.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = app.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_INVALIDATED", env.Error.Code)
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/api/v1/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_REQUIRED", env.Error.Code)

	w, env = app.do(t, http.MethodGet, "/api/v1/students", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_INVALID", env.Error.Code)
}

func TestStudentLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "t@example.com")

	for _, name := range []string{"Math", "Science"} {
		w, _ := app.do(t, http.MethodPost, "/api/v1/subjects", token, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, env := app.do(t, http.MethodPost, "/api/v1/subjects", token, gin.H{"name": "math"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_SUBJECT", env.Error.Code)

	w, env = app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{
		"name": "Alice", "roll_no": "2", "marks": gin.H{"Math": "90", "Science": 75},
		"total": 999, "percentage": 999,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Student model.Student `json:"student"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 165.0, created.Student.Total)
	assert.Equal(t, 82.5, created.Student.Percentage)

	w, _ = app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Bob", "roll_no": "1", "marks": gin.H{"Math": 40}})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "alice", "roll_no": "3"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_STUDENT", env.Error.Code)

	w, env = app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "  ", "roll_no": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "roll_no")

	w, env = app.do(t, http.MethodGet, "/api/v1/students?sort=total&dir=desc", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Students []model.Student `json:"students"`
		Query    marks.ViewQuery `json:"query"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Students, 2)
	assert.Equal(t, "Alice", list.Students[0].Name)
	assert.Equal(t, marks.SortByTotal, list.Query.SortKey)
	assert.Equal(t, marks.Desc, list.Query.SortDir)

	id := created.Student.ID.String()
	w, env = app.do(t, http.MethodPut, "/api/v1/students/"+id, token, gin.H{"name": "Alice", "roll_no": "2", "marks": gin.H{"Math": 100, "Science": 100}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"percentage":100`)

	w, _ = app.do(t, http.MethodGet, "/api/v1/students/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/v1/students/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = app.do(t, http.MethodGet, "/api/v1/students/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "STUDENT_NOT_FOUND", env.Error.Code)
}

func TestPreview(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "t@example.com")

	w, env := app.do(t, http.MethodPost, "/api/v1/marks/preview", token, gin.H{"marks": gin.H{"Math": "50", "Art": ""}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":50,"percentage":25}`, string(env.Data))
}

func TestHugeMarksKeepListReadable(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "t@example.com")

	for _, name := range []string{"Math", "Science"} {
		w, _ := app.do(t, http.MethodPost, "/api/v1/subjects", token, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, _ := app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Alice", "roll_no": "1", "marks": gin.H{"Math": 1e303}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Bob", "roll_no": "2", "marks": gin.H{"Math": 1e308, "Science": 1e308}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := app.do(t, http.MethodGet, "/api/v1/students", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Students []model.Student `json:"students"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Students, 2)
	assert.Equal(t, 1e303, list.Students[0].Total)
	assert.Equal(t, 0.0, list.Students[1].Total)
	assert.Equal(t, 0.0, list.Students[1].Percentage)
}

func TestViewerCannotWrite(t *testing.T) {
	app := newTestApp(t)
	token := app.viewerToken(t)

	w, _ := app.do(t, http.MethodGet, "/api/v1/students", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "X", "roll_no": "1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", env.Error.Code)

	w, _ = app.do(t, http.MethodPost, "/api/v1/subjects", token, gin.H{"name": "Math"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChartAndExports(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "t@example.com")

	app.do(t, http.MethodPost, "/api/v1/subjects", token, gin.H{"name": "Math"})
	app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Alice", "roll_no": "1", "marks": gin.H{"Math": 80}})
	app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Bob", "roll_no": "2", "marks": gin.H{"Math": 95}})

	w, env := app.do(t, http.MethodGet, "/api/v1/reports/chart?mode=percentage", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var chart marks.Chart
	require.NoError(t, json.Unmarshal(env.Data, &chart))
	assert.Equal(t, []string{"Bob", "Alice"}, chart.Performance.Labels)
	assert.Equal(t, 87.5, chart.OverallAverage)
	require.NotNil(t, chart.Topper)
	assert.Equal(t, "Bob", chart.Topper.Name)

	w, _ = app.do(t, http.MethodGet, "/api/v1/exports/students.xlsx?search=ali", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students-")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Students")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[1][1])

	w, _ = app.do(t, http.MethodGet, "/api/v1/exports/students.pdf", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestMarksheetStream(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "t@example.com")
	app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Bob", "roll_no": "2"})

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/marksheet?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.SnapshotResponse {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var snap ws.SnapshotResponse
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	first := read()
	assert.Equal(t, ws.EventSnapshot, first.Event)
	require.Len(t, first.Students, 1)
	assert.Equal(t, "Bob", first.Students[0].Name)

	w, _ := app.do(t, http.MethodPost, "/api/v1/students", token, gin.H{"name": "Alice", "roll_no": "1"})
	require.Equal(t, http.StatusCreated, w.Code)

	second := read()
	require.Len(t, second.Students, 2)
	assert.Equal(t, "Alice", second.Students[0].Name)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionView, Search: "bob"}))
	third := read()
	require.Len(t, third.Students, 1)
	assert.Equal(t, "Bob", third.Students[0].Name)
	assert.Equal(t, "bob", third.Query.Search)

	require.NoError(t, conn.WriteJSON(ws.Request{Action: ws.ActionPing}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)
}

func TestMarksheetStreamRequiresToken(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/marksheet"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
