package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/api"
	"github.com/goliatone/go-ems-auth/metrics"
	"github.com/goliatone/go-ems-auth/persistence"
)

const testSecret = "api-test-secret"

type testServer struct {
	app   *fiber.App
	repo  auth.RepositoryManager
	codec *auth.TokenCodec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.Open(ctx, persistence.Options{Driver: persistence.DriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, persistence.Migrate(ctx, db))

	repo := auth.NewRepositoryManager(db)
	codec, err := auth.NewTokenCodec([]byte(testSecret), auth.DefaultTokenTTL)
	require.NoError(t, err)

	recorder := metrics.NewRecorder()
	lifecycle := auth.NewAccountLifecycle(repo, codec).
		WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)).
		WithActivitySink(recorder)

	created, err := lifecycle.BootstrapDefaultAdmin(ctx)
	require.NoError(t, err)
	require.True(t, created)

	app := api.New(api.Options{
		Lifecycle:   lifecycle,
		Experience:  auth.NewExperienceService(repo),
		Codec:       codec,
		Accounts:    repo.Accounts(),
		Metrics:     recorder,
		Health:      func(ctx context.Context) error { return db.PingContext(ctx) },
		CORSOrigins: "*",
	})

	return &testServer{app: app, repo: repo, codec: codec}
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) login(t *testing.T, portal, username, password string) auth.LoginResult {
	t.Helper()
	status, raw := s.call(t, http.MethodPost, "/auth/"+portal+"/login", "", api.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, status, string(raw))

	var res auth.LoginResult
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func decodeError(t *testing.T, raw []byte) api.ErrorResponse {
	t.Helper()
	var res api.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &res), string(raw))
	return res
}

func johnRequest() api.EmployeeRequest {
	return api.EmployeeRequest{
		Name:        "John Smith",
		Email:       "john@example.com",
		Designation: "Engineer",
		Salary:      50000,
		BirthDate:   "1990-05-01",
	}
}

func TestServer_PublicRoutes(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	status, raw = s.call(t, http.MethodGet, "/public/stats", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"totalEmployees":1,"newJoinees":1,"avgSalary":60000}`, string(raw))

	status, raw = s.call(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "ems_auth_token_checks_total")
}

func TestServer_Login(t *testing.T) {
	s := newTestServer(t)

	t.Run("admin portal", func(t *testing.T) {
		res := s.login(t, "admin", "admin", "admin123")
		assert.Equal(t, auth.RoleAdmin, res.Role)
		assert.NotNil(t, res.EmployeeID)

		p, err := s.codec.Decode(res.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", p.Subject)
	})

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{name: "wrong portal", path: "/auth/user/login", body: api.LoginRequest{Username: "admin", Password: "admin123"}, wantStatus: http.StatusForbidden},
		{name: "bad password", path: "/auth/admin/login", body: api.LoginRequest{Username: "admin", Password: "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", path: "/auth/admin/login", body: api.LoginRequest{Username: "ghost", Password: "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "missing fields", path: "/auth/admin/login", body: api.LoginRequest{}, wantStatus: http.StatusBadRequest},
		{name: "malformed body", path: "/auth/admin/login", body: "{not json", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := s.call(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, status)

			res := decodeError(t, raw)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, http.StatusText(tt.wantStatus), res.Error)
			assert.Equal(t, tt.path, res.Path)
			assert.NotEmpty(t, res.Message)
			assert.False(t, res.Timestamp.IsZero())
		})
	}

	t.Run("validation errors are listed", func(t *testing.T) {
		_, raw := s.call(t, http.MethodPost, "/auth/admin/login", "", api.LoginRequest{Username: "admin"})
		res := decodeError(t, raw)
		assert.Contains(t, res.ValidationErrors, "password")
		assert.NotContains(t, res.ValidationErrors, "username")
	})
}

func TestServer_EmployeeLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin", "admin123").Token

	status, _ := s.call(t, http.MethodPost, "/api/employees", "", johnRequest())
	require.Equal(t, http.StatusUnauthorized, status)

	status, raw := s.call(t, http.MethodPost, "/api/employees", admin, johnRequest())
	require.Equal(t, http.StatusCreated, status, string(raw))

	var john api.EmployeeResponse
	require.NoError(t, json.Unmarshal(raw, &john))
	assert.NotZero(t, john.ID)
	assert.Equal(t, "1990-05-01", john.BirthDate)
	johnPath := fmt.Sprintf("/api/employees/%d", john.ID)

	user := s.login(t, "user", "john", "john$$01")
	assert.Equal(t, john.ID, *user.EmployeeID)

	t.Run("duplicate email", func(t *testing.T) {
		status, raw := s.call(t, http.MethodPost, "/api/employees", admin, johnRequest())
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, decodeError(t, raw).Message, "email already in use")
	})

	t.Run("invalid employee", func(t *testing.T) {
		req := johnRequest()
		req.Email = "not-an-email"
		req.BirthDate = "01/05/1990"
		status, raw := s.call(t, http.MethodPost, "/api/employees", admin, req)
		assert.Equal(t, http.StatusBadRequest, status)

		res := decodeError(t, raw)
		assert.Contains(t, res.ValidationErrors, "email")
		assert.Contains(t, res.ValidationErrors, "birthDate")
	})

	t.Run("user can read", func(t *testing.T) {
		status, raw := s.call(t, http.MethodGet, "/api/employees", user.Token, nil)
		assert.Equal(t, http.StatusOK, status)

		var list []api.EmployeeResponse
		require.NoError(t, json.Unmarshal(raw, &list))
		assert.Len(t, list, 2)

		status, _ = s.call(t, http.MethodGet, johnPath, user.Token, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("user can not write", func(t *testing.T) {
		status, raw := s.call(t, http.MethodPost, "/api/employees", user.Token, johnRequest())
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, http.StatusForbidden, decodeError(t, raw).Status)

		status, _ = s.call(t, http.MethodDelete, johnPath, user.Token, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("profile", func(t *testing.T) {
		status, raw := s.call(t, http.MethodGet, "/api/profile/me", user.Token, nil)
		assert.Equal(t, http.StatusOK, status)

		var me api.EmployeeResponse
		require.NoError(t, json.Unmarshal(raw, &me))
		assert.Equal(t, john.ID, me.ID)

		status, _ = s.call(t, http.MethodGet, "/api/profile/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("lookup errors", func(t *testing.T) {
		status, _ := s.call(t, http.MethodGet, "/api/employees/9999", admin, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = s.call(t, http.MethodGet, "/api/employees/abc", admin, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("update", func(t *testing.T) {
		req := johnRequest()
		req.Designation = "Lead"
		status, raw := s.call(t, http.MethodPut, johnPath, admin, req)
		require.Equal(t, http.StatusOK, status, string(raw))

		var updated api.EmployeeResponse
		require.NoError(t, json.Unmarshal(raw, &updated))
		assert.Equal(t, "Lead", updated.Designation)
	})

	t.Run("forgot password", func(t *testing.T) {
		status, raw := s.call(t, http.MethodPost, "/auth/forgot-password", "", api.ForgotPasswordRequest{SecurityKey: "john1991", NewPassword: "x"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Contains(t, decodeError(t, raw).Message, "security key verification failed")

		status, raw = s.call(t, http.MethodPost, "/auth/forgot-password", "", api.ForgotPasswordRequest{SecurityKey: "john1990", NewPassword: "changed"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Password updated successfully", string(raw))

		s.login(t, "user", "john", "changed")
	})

	t.Run("reset credentials", func(t *testing.T) {
		path := fmt.Sprintf("/auth/reset-credentials/%d", john.ID)

		status, _ := s.call(t, http.MethodPost, path, user.Token, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, raw := s.call(t, http.MethodPost, path, admin, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Credentials reset to default", string(raw))

		s.login(t, "user", "john", "john$$01")
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := s.call(t, http.MethodDelete, johnPath, admin, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = s.call(t, http.MethodGet, johnPath, admin, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = s.call(t, http.MethodDelete, johnPath, admin, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("token of a deleted account is anonymous", func(t *testing.T) {
		status, _ := s.call(t, http.MethodGet, "/api/employees", user.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = s.call(t, http.MethodGet, "/public/stats", user.Token, nil)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestServer_Experience(t *testing.T) {
	s := newTestServer(t)
	adminLogin := s.login(t, "admin", "admin", "admin123")
	admin := adminLogin.Token

	status, raw := s.call(t, http.MethodPost, "/api/employees", admin, johnRequest())
	require.Equal(t, http.StatusCreated, status, string(raw))
	var john api.EmployeeResponse
	require.NoError(t, json.Unmarshal(raw, &john))
	user := s.login(t, "user", "john", "john$$01").Token

	add := func(stack, company string, years int) api.ExperienceResponse {
		t.Helper()
		status, raw := s.call(t, http.MethodPost, "/api/experience", admin, api.ExperienceRequest{
			EmployeeID: john.ID,
			TechStack:  stack,
			Company:    company,
			Years:      years,
		})
		require.Equal(t, http.StatusOK, status, string(raw))

		var res api.ExperienceResponse
		require.NoError(t, json.Unmarshal(raw, &res))
		return res
	}

	goAcme := add("Go", "Acme", 3)
	goGlobex := add("Go", "Globex", 2)
	java := add("Java", "Initech", 4)
	assert.Equal(t, john.ID, goAcme.EmployeeID)

	list := func(token, path string) []api.ExperienceResponse {
		t.Helper()
		status, raw := s.call(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status, string(raw))

		var out []api.ExperienceResponse
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	}
	ids := func(records []api.ExperienceResponse) []int64 {
		out := make([]int64, 0, len(records))
		for _, r := range records {
			out = append(out, r.ID)
		}
		return out
	}

	t.Run("writes need an admin", func(t *testing.T) {
		req := api.ExperienceRequest{EmployeeID: john.ID, TechStack: "Go", Years: 1}

		status, _ := s.call(t, http.MethodPost, "/api/experience", "", req)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = s.call(t, http.MethodPost, "/api/experience", user, req)
		assert.Equal(t, http.StatusForbidden, status)

		status, _ = s.call(t, http.MethodGet, "/api/experience", user, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, _ = s.call(t, http.MethodGet, fmt.Sprintf("/api/experience/employee/%d", john.ID), user, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("invalid entry", func(t *testing.T) {
		status, raw := s.call(t, http.MethodPost, "/api/experience", admin, api.ExperienceRequest{})
		assert.Equal(t, http.StatusBadRequest, status)

		res := decodeError(t, raw)
		assert.Contains(t, res.ValidationErrors, "employeeId")
		assert.Contains(t, res.ValidationErrors, "techStack")
		assert.Contains(t, res.ValidationErrors, "years")

		status, _ = s.call(t, http.MethodPost, "/api/experience", admin, api.ExperienceRequest{EmployeeID: 9999, TechStack: "Go", Years: 1})
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("own history follows the token", func(t *testing.T) {
		assert.Equal(t, []int64{goAcme.ID, goGlobex.ID, java.ID}, ids(list(user, "/api/experience/me")))
		assert.Empty(t, list(admin, "/api/experience/me"))

		status, _ := s.call(t, http.MethodGet, "/api/experience/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, raw := s.call(t, http.MethodGet, "/api/experience/summary/me", user, nil)
		require.Equal(t, http.StatusOK, status)
		var summary []auth.ExperienceSummary
		require.NoError(t, json.Unmarshal(raw, &summary))
		assert.Equal(t, []auth.ExperienceSummary{
			{TechStack: "Go", TotalYears: 5},
			{TechStack: "Java", TotalYears: 4},
		}, summary)
	})

	t.Run("admin reads any employee", func(t *testing.T) {
		assert.Len(t, list(admin, fmt.Sprintf("/api/experience/employee/%d", john.ID)), 3)
		assert.Len(t, list(admin, "/api/experience"), 3)

		status, raw := s.call(t, http.MethodGet, fmt.Sprintf("/api/experience/employee/summary/%d", john.ID), admin, nil)
		require.Equal(t, http.StatusOK, status)
		var summary []auth.ExperienceSummary
		require.NoError(t, json.Unmarshal(raw, &summary))
		assert.Len(t, summary, 2)
	})

	t.Run("filter", func(t *testing.T) {
		path := fmt.Sprintf("/api/experience/filter?employeeId=%d&sortBy=years&sortDir=desc", john.ID)
		assert.Equal(t, []int64{java.ID, goAcme.ID, goGlobex.ID}, ids(list(user, path)))
		assert.Equal(t, []int64{goAcme.ID}, ids(list(user, "/api/experience/filter?techStack=GO&minYears=3")))

		status, _ := s.call(t, http.MethodGet, "/api/experience/filter?sortBy=salary", user, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = s.call(t, http.MethodGet, "/api/experience/filter?minYears=many", user, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("update checks the owner", func(t *testing.T) {
		path := fmt.Sprintf("/api/experience/%d", goGlobex.ID)
		req := api.ExperienceRequest{EmployeeID: *adminLogin.EmployeeID, TechStack: "Go", Company: "Globex", Years: 6}

		status, _ := s.call(t, http.MethodPut, path, admin, req)
		assert.Equal(t, http.StatusNotFound, status)

		req.EmployeeID = john.ID
		status, raw := s.call(t, http.MethodPut, path, admin, req)
		require.Equal(t, http.StatusOK, status, string(raw))

		var updated api.ExperienceResponse
		require.NoError(t, json.Unmarshal(raw, &updated))
		assert.Equal(t, 6, updated.Years)
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/api/experience/%d", java.ID)

		status, _ := s.call(t, http.MethodDelete, path, admin, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = s.call(t, http.MethodDelete, path+fmt.Sprintf("?employeeId=%d", john.ID), user, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, _ = s.call(t, http.MethodDelete, path+fmt.Sprintf("?employeeId=%d", john.ID), admin, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = s.call(t, http.MethodDelete, path+fmt.Sprintf("?employeeId=%d", john.ID), admin, nil)
		assert.Equal(t, http.StatusNotFound, status)

		assert.Equal(t, []int64{goAcme.ID, goGlobex.ID}, ids(list(user, "/api/experience/me")))
	})

	t.Run("deleting the employee removes the history", func(t *testing.T) {
		status, _ := s.call(t, http.MethodDelete, fmt.Sprintf("/api/employees/%d", john.ID), admin, nil)
		require.Equal(t, http.StatusNoContent, status)

		assert.Empty(t, list(admin, "/api/experience"))
	})
}

func TestServer_CreateUser(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin", "admin123").Token

	employee, err := s.repo.Employees().Create(context.Background(), &auth.Employee{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Designation: "Analyst",
		Salary:      40000,
		BirthDate:   time.Date(1985, time.December, 23, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := api.CreateUserRequest{Username: "jdoe", Password: "pw", Role: "USER", EmployeeID: employee.ID}

	status, raw := s.call(t, http.MethodPost, "/auth/create-user", admin, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User created successfully", string(raw))
	s.login(t, "user", "jdoe", "pw")

	status, raw = s.call(t, http.MethodPost, "/auth/create-user", admin, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, raw).Message, "user already exists")

	req.Username = "other"
	req.EmployeeID = 9999
	status, _ = s.call(t, http.MethodPost, "/auth/create-user", admin, req)
	assert.Equal(t, http.StatusNotFound, status)

	req.Role = "MANAGER"
	status, raw = s.call(t, http.MethodPost, "/auth/create-user", admin, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, raw).ValidationErrors, "role")
}

func TestServer_TokenFailures(t *testing.T) {
	s := newTestServer(t)

	past, err := auth.NewTokenCodec([]byte(testSecret), time.Minute, auth.WithTokenClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	}))
	require.NoError(t, err)
	expired, err := past.Issue("admin", auth.RoleAdmin, nil)
	require.NoError(t, err)

	status, raw := s.call(t, http.MethodGet, "/api/employees", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token expired", string(raw))

	status, raw = s.call(t, http.MethodGet, "/public/stats", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, raw)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: auth.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: auth.ErrSecurityKeyMismatch, want: http.StatusUnauthorized},
		{err: auth.ErrExpiredToken, want: http.StatusUnauthorized},
		{err: auth.ErrWrongPortal, want: http.StatusForbidden},
		{err: auth.ErrRecordNotFound, want: http.StatusNotFound},
		{err: auth.ErrAccountNotFound, want: http.StatusNotFound},
		{err: auth.ErrAlreadyExists, want: http.StatusBadRequest},
		{err: auth.ErrNoLinkedRecord, want: http.StatusBadRequest},
		{err: auth.ErrInvalidFormat, want: http.StatusBadRequest},
		{err: auth.ErrInvalidEmail, want: http.StatusBadRequest},
		{err: auth.ErrTransactionFailure, want: http.StatusInternalServerError},
		{err: fiber.ErrForbidden, want: http.StatusForbidden},
		{err: fmt.Errorf("wrapped: %w", auth.ErrRecordNotFound), want: http.StatusNotFound},
		{err: io.ErrUnexpectedEOF, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, api.StatusFor(tt.err))
		})
	}
}
