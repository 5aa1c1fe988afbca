package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskflow/internal/adapters/cache"
	"github.com/taskmaster/taskflow/internal/adapters/repository/memory"
	"github.com/taskmaster/taskflow/internal/application/services"
	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/config"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
)

const testCookieName = "taskflow.session_token"

type testAPI struct {
	t *testing.T
	e *echo.Echo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewNop()
	v := services.NewValidator()

	auth := services.NewAuthService(store.Users(), store.Sessions(), config.SessionConfig{
		Secret:     "test-secret",
		ExpiresIn:  time.Hour,
		Issuer:     "taskflow-test",
		CookieName: testCookieName,
	}, v, nil, log)
	projects := services.NewProjectService(store.Projects(), cache.NoopCache{}, v, nil, log)
	tasks := services.NewTaskService(store.Tasks(), store.Projects(), cache.NoopCache{}, v, nil, log)

	cookies := SessionCookies{Name: testCookieName}
	authHandler := NewAuthHandler(auth, cookies, log)
	projectHandler := NewProjectHandler(projects, tasks)
	taskHandler := NewTaskHandler(tasks)
	dashboardHandler := NewDashboardHandler(services.NewDashboardService(tasks, projects))

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log)

	v1 := e.Group("/api/v1", ResolveSession(auth, cookies, log))
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", authHandler.Logout)
	v1.GET("/auth/session", authHandler.Session, RequireIdentity)

	pg := v1.Group("/projects", RequireIdentity)
	pg.GET("", projectHandler.ListProjects)
	pg.POST("", projectHandler.CreateProject)
	pg.GET("/:id", projectHandler.GetProject)
	pg.PATCH("/:id", projectHandler.UpdateProject)
	pg.DELETE("/:id", projectHandler.DeleteProject)
	pg.GET("/:id/tasks", projectHandler.GetProjectTasks)

	tg := v1.Group("/tasks", RequireIdentity)
	tg.GET("", taskHandler.ListTasks)
	tg.POST("", taskHandler.CreateTask)
	tg.GET("/stats", taskHandler.GetTaskStats)
	tg.GET("/:id", taskHandler.GetTask)
	tg.PATCH("/:id", taskHandler.UpdateTask)
	tg.DELETE("/:id", taskHandler.DeleteTask)

	v1.GET("/dashboard", dashboardHandler.GetDashboard, RequireIdentity)

	return &testAPI{t: t, e: e}
}

func (a *testAPI) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(email string) *http.Cookie {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Test User","email":"`+email+`","password":"password123"}`, nil)
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}
	return sessionCookie(a.t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", testCookieName)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v, body = %s", body["success"], rec.Body.String())
	}
	d, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data missing in %s", rec.Body.String())
	}
	return d
}

func TestSessionLifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ada","email":"Ada@Example.com","password":"password123"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || cookie.Path != "/" {
		t.Errorf("cookie = %+v, want HttpOnly with path /", cookie)
	}
	user := data(t, rec)["user"].(map[string]interface{})
	if user["email"] != "ada@example.com" {
		t.Errorf("user email = %v", user["email"])
	}

	rec = api.do(http.MethodGet, "/api/v1/auth/session", "", cookie)
	if rec.Code != http.StatusOK || decode(t, rec)["name"] != "Ada" {
		t.Fatalf("session: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = api.do(http.MethodPost, "/api/v1/auth/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}
	if cleared := sessionCookie(t, rec); cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("logout cookie = %+v, want expired", cleared)
	}

	rec = api.do(http.MethodGet, "/api/v1/auth/session", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("session after logout: status = %d, want 401", rec.Code)
	}

	rec = api.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"password123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	sessionCookie(t, rec)

	rec = api.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"wrong-password"}`, nil)
	if rec.Code != http.StatusUnauthorized || decode(t, rec)["message"] != "Invalid email or password" {
		t.Errorf("bad login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	api := newTestAPI(t)
	api.register("dup@example.com")

	rec := api.do(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Other","email":"DUP@example.com","password":"password123"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	api := newTestAPI(t)

	paths := []string{"/api/v1/projects", "/api/v1/tasks", "/api/v1/tasks/stats", "/api/v1/dashboard", "/api/v1/auth/session"}
	for _, path := range paths {
		rec := api.do(http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", path, rec.Code)
			continue
		}
		if msg := decode(t, rec)["message"]; msg != "Unauthorized" {
			t.Errorf("GET %s: message = %v", path, msg)
		}
	}

	forged := &http.Cookie{Name: testCookieName, Value: "not-a-token"}
	if rec := api.do(http.MethodGet, "/api/v1/projects", "", forged); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged cookie: status = %d, want 401", rec.Code)
	}
}

func TestProjectAndTaskFlow(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register("flow@example.com")

	rec := api.do(http.MethodPost, "/api/v1/projects", `{"name":"Website"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	project := data(t, rec)
	if project["color"] != entities.DefaultProjectColor {
		t.Errorf("color = %v, want default", project["color"])
	}
	projectID := project["id"].(string)

	rec = api.do(http.MethodPost, "/api/v1/tasks",
		`{"title":"Ship it","priority":"high","due_date":"2030-01-02","project_id":"`+projectID+`"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	task := data(t, rec)
	taskID := task["id"].(string)
	if task["status"] != "todo" || task["completed_at"] != nil {
		t.Errorf("new task = %v", task)
	}

	rec = api.do(http.MethodGet, "/api/v1/projects?with_counts=true", "", cookie)
	list := decodeList(t, rec)
	if len(list) != 1 || list[0]["task_count"] != float64(1) {
		t.Errorf("projects with counts = %v", list)
	}

	rec = api.do(http.MethodGet, "/api/v1/projects/"+projectID+"/tasks", "", cookie)
	if tasks := decodeList(t, rec); len(tasks) != 1 || tasks[0]["id"] != taskID {
		t.Errorf("project tasks = %v", tasks)
	}

	rec = api.do(http.MethodPatch, "/api/v1/tasks/"+taskID, `{"status":"completed"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data(t, rec)["completed_at"] == nil {
		t.Error("completed_at not stamped")
	}

	rec = api.do(http.MethodGet, "/api/v1/tasks/stats", "", cookie)
	stats := decode(t, rec)
	if stats["total"] != float64(1) || stats["completed"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}

	rec = api.do(http.MethodDelete, "/api/v1/projects/"+projectID, "", cookie)
	if rec.Code != http.StatusOK || decode(t, rec)["success"] != true {
		t.Fatalf("delete project: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = api.do(http.MethodGet, "/api/v1/tasks/"+taskID, "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("get task after project delete: status = %d", rec.Code)
	}
	if got := decode(t, rec)["project_id"]; got != nil {
		t.Errorf("project_id = %v, want null", got)
	}

	rec = api.do(http.MethodPatch, "/api/v1/tasks/"+taskID, `{"due_date":null}`, cookie)
	if got := data(t, rec)["due_date"]; got != nil {
		t.Errorf("due_date = %v, want null", got)
	}

	rec = api.do(http.MethodGet, "/api/v1/dashboard", "", cookie)
	dash := decode(t, rec)
	if recent, _ := dash["recent_tasks"].([]interface{}); len(recent) != 1 {
		t.Errorf("dashboard recent_tasks = %v", dash["recent_tasks"])
	}

	rec = api.do(http.MethodDelete, "/api/v1/tasks/"+taskID, "", cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("delete task: status = %d", rec.Code)
	}
	if rec = api.do(http.MethodGet, "/api/v1/tasks/"+taskID, "", cookie); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted task: status = %d, want 404", rec.Code)
	}
}

func TestForeignRecordsAreNotFound(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")
	bob := api.register("bob@example.com")

	rec := api.do(http.MethodPost, "/api/v1/projects", `{"name":"Private"}`, alice)
	projectID := data(t, rec)["id"].(string)
	rec = api.do(http.MethodPost, "/api/v1/tasks", `{"title":"Secret"}`, alice)
	taskID := data(t, rec)["id"].(string)

	tests := []struct {
		method, path, body, message string
	}{
		{http.MethodGet, "/api/v1/projects/" + projectID, "", "Project not found"},
		{http.MethodPatch, "/api/v1/projects/" + projectID, `{"name":"Mine"}`, "Project not found"},
		{http.MethodDelete, "/api/v1/projects/" + projectID, "", "Project not found"},
		{http.MethodGet, "/api/v1/projects/" + projectID + "/tasks", "", "Project not found"},
		{http.MethodGet, "/api/v1/tasks/" + taskID, "", "Task not found"},
		{http.MethodPatch, "/api/v1/tasks/" + taskID, `{"title":"Mine"}`, "Task not found"},
		{http.MethodDelete, "/api/v1/tasks/" + taskID, "", "Task not found"},
		{http.MethodGet, "/api/v1/tasks/not-a-uuid", "", "Task not found"},
	}

	for _, tt := range tests {
		rec := api.do(tt.method, tt.path, tt.body, bob)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tt.method, tt.path, rec.Code)
			continue
		}
		if msg := decode(t, rec)["message"]; msg != tt.message {
			t.Errorf("%s %s: message = %v, want %q", tt.method, tt.path, msg, tt.message)
		}
	}

	if list := decodeList(t, api.do(http.MethodGet, "/api/v1/tasks", "", bob)); len(list) != 0 {
		t.Errorf("bob sees %d tasks", len(list))
	}
}

func TestValidationErrorsCarryFieldDetails(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register("valid@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		fields []string
	}{
		{"project name and color", http.MethodPost, "/api/v1/projects", `{"name":"","color":"red"}`, []string{"name", "color"}},
		{"task title", http.MethodPost, "/api/v1/tasks", `{"title":""}`, []string{"title"}},
		{"task status", http.MethodPost, "/api/v1/tasks", `{"title":"x","status":"done"}`, []string{"status"}},
		{"task due date", http.MethodPost, "/api/v1/tasks", `{"title":"x","due_date":"someday"}`, []string{"due_date"}},
		{"task list filter", http.MethodGet, "/api/v1/tasks?project_id=nope", "", []string{"project_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body, cookie)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if body["message"] != "Validation failed" {
				t.Errorf("message = %v", body["message"])
			}
			details, _ := body["details"].(map[string]interface{})
			for _, field := range tt.fields {
				if _, ok := details[field]; !ok {
					t.Errorf("details = %v, missing %q", details, field)
				}
			}
		})
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.register("bad@example.com")

	rec := api.do(http.MethodPost, "/api/v1/projects", `{"name":`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != "Invalid request format" {
		t.Errorf("message = %v", msg)
	}
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", entities.NewValidationError("name", "Name is required"), http.StatusBadRequest, "Validation failed"},
		{"unauthorized", entities.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"credentials", entities.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"project not found", entities.ErrProjectNotFound, http.StatusNotFound, "Project not found"},
		{"wrapped task not found", errors.Join(errors.New("ctx"), entities.ErrTaskNotFound), http.StatusNotFound, "Task not found"},
		{"email taken", entities.ErrEmailTaken, http.StatusConflict, "Email is already registered"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := errorResponse(tt.err)
			if code != tt.code {
				t.Errorf("code = %d, want %d", code, tt.code)
			}
			if tt.name != "wrapped task not found" && body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
		})
	}
}

func TestGuardMiddleware(t *testing.T) {
	cookies := SessionCookies{Name: testCookieName}
	e := echo.New()
	e.Use(Guard(cookies))
	e.GET("/*", func(c echo.Context) error { return c.String(http.StatusOK, "page") })

	session := &http.Cookie{Name: testCookieName, Value: "anything"}

	tests := []struct {
		path     string
		cookie   *http.Cookie
		code     int
		location string
	}{
		{"/dashboard", nil, http.StatusTemporaryRedirect, "/login?callbackUrl=/dashboard"},
		{"/projects/abc", nil, http.StatusTemporaryRedirect, "/login?callbackUrl=/projects/abc"},
		{"/login", session, http.StatusTemporaryRedirect, "/dashboard"},
		{"/register", session, http.StatusTemporaryRedirect, "/dashboard"},
		{"/dashboard", session, http.StatusOK, ""},
		{"/login", nil, http.StatusOK, ""},
		{"/api/v1/tasks", nil, http.StatusOK, ""},
		{"/favicon.ico", nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.cookie != nil {
			req.AddCookie(tt.cookie)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != tt.code {
			t.Errorf("%s (cookie=%v): status = %d, want %d", tt.path, tt.cookie != nil, rec.Code, tt.code)
		}
		if got := rec.Header().Get(echo.HeaderLocation); got != tt.location {
			t.Errorf("%s: location = %q, want %q", tt.path, got, tt.location)
		}
	}
}

func TestCredentialPrefersCookieOverBearer(t *testing.T) {
	cookies := SessionCookies{Name: testCookieName}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer header-token")
	c := e.NewContext(req, httptest.NewRecorder())
	if got := cookies.Credential(c); got != "header-token" {
		t.Errorf("bearer only: credential = %q", got)
	}

	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "cookie-token"})
	c = e.NewContext(req, httptest.NewRecorder())
	if got := cookies.Credential(c); got != "cookie-token" {
		t.Errorf("cookie and bearer: credential = %q", got)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := cookies.Credential(c); got != "" {
		t.Errorf("no credential: got %q", got)
	}
}
