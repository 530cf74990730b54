package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/DocDesk/internal/models"
)

type testDeps struct {
	auth      *fakeAuthService
	doctors   *fakeDoctorService
	uploadDir string
}

func newTestServer(t *testing.T) (*httptest.Server, *testDeps) {
	t.Helper()
	deps := &testDeps{
		auth: &fakeAuthService{users: map[string]*models.User{
			"good":    {ID: "d1", Name: "Dr. Bo", Role: models.RoleDoctor},
			"patient": {ID: "p1", Name: "Pat", Role: models.RolePatient},
		}},
		doctors:   &fakeDoctorService{profile: &models.DoctorProfile{ID: "d1", Name: "Dr. Bo", Phone: "1"}},
		uploadDir: t.TempDir(),
	}
	router := NewRouter(
		&AuthHandler{AuthService: deps.auth},
		&DoctorHandler{Doctors: deps.doctors},
		&FAQHandler{FAQs: models.FAQs},
		&UploadHandler{Dir: deps.uploadDir, PublicURL: "http://files.test"},
		deps.auth,
		nil,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, deps
}

type response struct {
	code int
	body []byte
}

func do(t *testing.T, srv *httptest.Server, method, path, token, body string) response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{code: res.StatusCode, body: data}
}

func TestRouter_FAQsArePublic(t *testing.T) {
	srv, _ := newTestServer(t)

	res := do(t, srv, http.MethodGet, "/api/faqs", "", "")
	require.Equal(t, http.StatusOK, res.code)

	var env models.Response[[]models.FAQ]
	require.NoError(t, json.Unmarshal(res.body, &env))
	assert.Equal(t, models.FAQs, env.Data)
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/doctors/d1"},
		{http.MethodPut, "/api/doctors/d1"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/uploads"},
	} {
		res := do(t, srv, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, res.code, tc.path)

		res = do(t, srv, tc.method, tc.path, "stale", "")
		assert.Equal(t, http.StatusUnauthorized, res.code, tc.path)
	}
}

func TestRouter_LoginThenLogout(t *testing.T) {
	srv, deps := newTestServer(t)

	res := do(t, srv, http.MethodPost, "/api/auth/login", "", `{"email":"bo@x.io","password":"pw"}`)
	require.Equal(t, http.StatusOK, res.code)

	res = do(t, srv, http.MethodPost, "/api/auth/logout", "good", "")
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "good", deps.auth.loggedOut)
}

func TestRouter_RejectsOtherContentTypes(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/login", strings.NewReader("email=x"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)
}

func TestRouter_UnknownRouteIsJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	res := do(t, srv, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.JSONEq(t, `{"success":false,"message":"Not found"}`, string(res.body))
}
