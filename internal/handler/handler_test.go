package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/partition"
	"github.com/suteetoe/tenantstarter/internal/registry"
	"github.com/suteetoe/tenantstarter/internal/repository"
	"github.com/suteetoe/tenantstarter/internal/resolver"
	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/jwtutil"
)

type fakeData struct {
	mu       sync.Mutex
	users    map[string][]model.User
	messages []model.ContactMessage
	logins   int
}

func (f *fakeData) partition(ctx context.Context, entity tenancy.Entity) (string, error) {
	t, err := tenancy.MustCurrent(ctx)
	if err != nil {
		return "", err
	}
	if err := tenancy.CheckAccess(entity, t.IsPublic()); err != nil {
		return "", err
	}
	return t.SchemaName, nil
}

func (f *fakeData) ListUsers(ctx context.Context) ([]model.User, error) {
	key, err := f.partition(ctx, tenancy.EntityUser)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[key], nil
}

func (f *fakeData) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	key, err := f.partition(ctx, tenancy.EntityUser)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users[key] {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeData) RecordLogin(context.Context, *model.User, string, string) error {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()
	return nil
}

func (f *fakeData) ListLocations(ctx context.Context) ([]model.Location, error) {
	if _, err := f.partition(ctx, tenancy.EntityLocation); err != nil {
		return nil, err
	}
	return []model.Location{{ID: 1, Name: "HQ"}}, nil
}

func (f *fakeData) CreateContactMessage(ctx context.Context, m *model.ContactMessage) error {
	if _, err := f.partition(ctx, tenancy.EntityContactMessage); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = uint(len(f.messages) + 1)
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeData) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	if _, err := f.partition(ctx, tenancy.EntityContactMessage); err != nil {
		return nil, err
	}
	return f.messages, nil
}

type server struct {
	e    *echo.Echo
	jwt  *jwtutil.JWTUtil
	data *fakeData
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	catalog := registry.NewMemory(registry.Options{Languages: []string{"en", "fr"}, DefaultLanguage: "en"})
	scoper := tenancy.NewScoper([]string{"en", "fr"}, "en")
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	manager := lifecycle.NewManager(catalog, partition.NewMemory("public"), scoper, lifecycle.NewMemoryAccounts(),
		lifecycle.WithStorage(local, false))
	_, err = manager.Bootstrap(ctx, "Public", []string{"localhost"})
	require.NoError(t, err)

	for _, name := range []string{"Acme", "Geneva"} {
		_, err := manager.CreateTenant(ctx, lifecycle.Request{Name: name, Domain: strings.ToLower(name) + ".localhost"})
		require.NoError(t, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234!"), bcrypt.MinCost)
	require.NoError(t, err)
	data := &fakeData{users: map[string][]model.User{
		"tenant_acme": {
			{ID: 1, Username: "alice", Password: string(hash), IsStaff: true, IsSuperuser: true},
			{ID: 2, Username: "sophie", Password: string(hash)},
		},
	}}

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	h := New(Config{
		Catalog:  catalog,
		Manager:  manager,
		Resolver: resolver.New(catalog, scoper),
		Data:     data,
		Media:    storage.NewTenantStorage(local, storage.LocationMedia),
		JWT:      jwtUtil,
	})
	e := echo.New()
	h.Register(e)
	return &server{e: e, jwt: jwtUtil, data: data}
}

func (s *server) token(t *testing.T, partition string, superuser bool) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(partition, 1, "admin", "admin@localhost", superuser)
	require.NoError(t, err)
	return token
}

func (s *server) do(method, host, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Host = host
	if body != nil && header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) http.Header {
	return http.Header{echo.HeaderAuthorization: {"Bearer " + token}}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "anything", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestTenantContext(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "acme.localhost", "/api/context", nil, http.Header{"Accept-Language": {"fr-CH"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "tenant_acme", body["schema"])
	assert.Equal(t, "tenant", body["route_table"])
	assert.Equal(t, "fr", body["language"])
	assert.Equal(t, "acme.localhost", body["primary_domain"])
	theme := body["theme"].(map[string]interface{})
	assert.Equal(t, "Client Tenant Administration", theme["site_header"])

	rec = s.do(http.MethodGet, "localhost:8000", "/api/context", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "public", body["schema"])
	assert.Equal(t, "Main Site Administration", body["theme"].(map[string]interface{})["site_header"])
}

func TestCreateTenantThroughPublicAdmin(t *testing.T) {
	s := newServer(t)
	token := s.token(t, "public", true)

	payload := `{"name":"Helvetia Tech","domain":"helvetia.localhost","email":"bruno@helvetia.test","canton":"ZH"}`
	rec := s.do(http.MethodPost, "localhost", "/admin/tenants", strings.NewReader(payload), bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "helvetia.localhost", body["domain"])
	assert.Equal(t, "bruno", body["admin"])
	assert.Len(t, body["admin_password"], 22)

	rec = s.do(http.MethodPost, "localhost", "/admin/tenants", strings.NewReader(payload), bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	bad := `{"name":"Bad","domain":"bad.localhost","canton":"XX"}`
	rec = s.do(http.MethodPost, "localhost", "/admin/tenants", strings.NewReader(bad), bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "localhost", "/admin/tenants", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var tenants []model.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenants))
	assert.Len(t, tenants, 4)
}

func TestPublicAdminIsNotServedOnTenants(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "acme.localhost", "/admin/tenants", nil, bearer(s.token(t, "tenant_acme", true)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "localhost", "/admin/tenants", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "localhost", "/admin/tenants", nil, bearer(s.token(t, "public", false)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteTenant(t *testing.T) {
	s := newServer(t)
	token := s.token(t, "public", true)

	rec := s.do(http.MethodDelete, "localhost", "/admin/tenants/tenant_geneva", nil, bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodDelete, "localhost", "/admin/tenants/tenant_geneva?force=true", nil, bearer(token))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The host now falls back to the public site.
	rec = s.do(http.MethodGet, "geneva.localhost", "/api/context", nil, nil)
	assert.Equal(t, "public", decode(t, rec)["schema"])

	rec = s.do(http.MethodDelete, "localhost", "/admin/tenants/public?force=true", nil, bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodDelete, "localhost", "/admin/tenants/tenant_nope", nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDomains(t *testing.T) {
	s := newServer(t)
	token := s.token(t, "public", true)

	rec := s.do(http.MethodPost, "localhost", "/admin/tenants/tenant_acme/domains",
		strings.NewReader(`{"domain":"www.acme.ch","primary":true}`), bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode(t, rec)["is_primary"])

	rec = s.do(http.MethodGet, "www.acme.ch", "/api/context", nil, nil)
	assert.Equal(t, "tenant_acme", decode(t, rec)["schema"])
	assert.Equal(t, "www.acme.ch", decode(t, rec)["primary_domain"])

	rec = s.do(http.MethodPost, "localhost", "/admin/tenants/tenant_geneva/domains",
		strings.NewReader(`{"domain":"www.acme.ch"}`), bearer(token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodDelete, "localhost", "/admin/tenants/tenant_geneva/domains/www.acme.ch", nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "localhost", "/admin/tenants/tenant_acme/domains/www.acme.ch", nil, bearer(token))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginAndTenantAdmin(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "acme.localhost", "/auth/login",
		strings.NewReader(`{"username":"alice","password":"demo1234!"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode(t, rec)["token"].(string)
	assert.Equal(t, 1, s.data.logins)

	claims, err := s.jwt.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", claims.Partition)

	rec = s.do(http.MethodGet, "acme.localhost", "/admin/users", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	// A token is only good on the partition it was issued for.
	rec = s.do(http.MethodGet, "geneva.localhost", "/admin/users", nil, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "acme.localhost", "/auth/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "acme.localhost", "/auth/login",
		strings.NewReader(`{"username":"sophie","password":"demo1234!"}`), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "localhost", "/auth/login",
		strings.NewReader(`{"username":"alice","password":"demo1234!"}`), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "acme.localhost", "/api/locations", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContactMessages(t *testing.T) {
	s := newServer(t)
	msg := `{"name":"Eve","email":"eve@example.com","subject":"Hello","message":"Interested"}`

	rec := s.do(http.MethodPost, "localhost", "/contact", strings.NewReader(msg), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "acme.localhost", "/contact", strings.NewReader(msg), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "localhost", "/contact", strings.NewReader(`{"name":"Eve"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "localhost", "/admin/messages", nil, bearer(s.token(t, "public", true)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.data.messages, 1)
}

func TestMediaIsolation(t *testing.T) {
	s := newServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "Logo.PNG")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	header := bearer(s.token(t, "tenant_acme", false))
	header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := s.do(http.MethodPost, "acme.localhost", "/media", &buf, header)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	url := decode(t, rec)["url"].(string)
	assert.True(t, strings.HasSuffix(url, ".png"))

	rec = s.do(http.MethodGet, "acme.localhost", url, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	rec = s.do(http.MethodGet, "geneva.localhost", url, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
