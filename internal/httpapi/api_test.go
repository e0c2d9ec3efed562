package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"unibooker.org/internal/auth"
	"unibooker.org/internal/token"
)

// fakeStore is a minimal in-memory auth.Store for handler tests.
type fakeStore struct {
	users     map[int64]*auth.User
	companies map[int64]*auth.Company
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]*auth.User),
		companies: make(map[int64]*auth.Company),
		nextID:    1,
	}
}

func (f *fakeStore) Users(context.Context) auth.UserStore        { return (*fakeUserStore)(f) }
func (f *fakeStore) Companies(context.Context) auth.CompanyStore { return (*fakeCompanyStore)(f) }

func (f *fakeStore) CreateCompanyWithAdmin(_ context.Context, company *auth.Company, admin *auth.User) error {
	company.ID = f.nextID
	f.nextID++
	f.companies[company.ID] = company
	admin.ID = f.nextID
	f.nextID++
	admin.CompanyID = &company.ID
	f.users[admin.ID] = admin
	return nil
}

func (f *fakeStore) addCompany(c *auth.Company) int64 {
	c.ID = f.nextID
	f.nextID++
	f.companies[c.ID] = c
	return c.ID
}

func (f *fakeStore) addUser(u *auth.User) int64 {
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return u.ID
}

type fakeUserStore fakeStore

func tenantsEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeUserStore) Create(_ context.Context, u *auth.User) error {
	(*fakeStore)(f).addUser(u)
	return nil
}

func (f *fakeUserStore) Find(_ context.Context, id int64) (*auth.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, auth.ErrAccountNotFound
}

func (f *fakeUserStore) FindByEmailAndCompany(_ context.Context, email string, companyID *int64) (*auth.User, error) {
	for _, u := range f.users {
		if u.Email == email && tenantsEqual(u.CompanyID, companyID) {
			return u, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (f *fakeUserStore) FindByPhone(_ context.Context, phone string) ([]*auth.User, error) {
	var out []*auth.User
	for _, u := range f.users {
		if u.Phone == phone {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) ExistsByEmailAndCompany(_ context.Context, email string, companyID *int64) (bool, error) {
	for _, u := range f.users {
		if u.Email == email && tenantsEqual(u.CompanyID, companyID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return auth.ErrAccountNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeCompanyStore fakeStore

func (f *fakeCompanyStore) Find(_ context.Context, id int64) (*auth.Company, error) {
	if c, ok := f.companies[id]; ok {
		return c, nil
	}
	return nil, auth.ErrCompanyNotFound
}

func (f *fakeCompanyStore) ExistsByBusinessNumber(_ context.Context, businessNumber string) (bool, error) {
	for _, c := range f.companies {
		if c.BusinessNumber == businessNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompanyStore) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	for _, c := range f.companies {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func newTestAPI(t *testing.T) (*API, *fakeStore) {
	t.Helper()
	codec, err := token.NewCodec([]byte("httpapi-test-secret"), 30*time.Minute, 14*24*time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := newFakeStore()
	sessions := auth.NewService(store, codec)
	return New(ReadyProbe{}, "test", sessions, 100, 100), store
}

func seedAccount(t *testing.T, store *fakeStore, email, password string) (int64, int64) {
	t.Helper()
	companyID := store.addCompany(&auth.Company{Name: "Acme", Slug: "acme", Status: auth.CompanyApproved})
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	userID := store.addUser(&auth.User{
		CompanyID:    &companyID,
		Email:        email,
		PasswordHash: hash,
		Name:         "Seeded",
		Phone:        "010-0000-0000",
		Role:         auth.RoleUser,
		Status:       auth.StatusActive,
	})
	return userID, companyID
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (int, string, map[string]any) {
	t.Helper()
	var out struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return out.Code, out.Message, out.Data
}

func TestLoginEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	_, companyID := seedAccount(t, store, "user@example.com", "secret-pw")

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/login",
		`{"email":"user@example.com","password":"secret-pw","companyId":`+itoa(companyID)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	code, _, data := decodeEnvelope(t, rec)
	if code != 10000 {
		t.Fatalf("code = %d, want 10000", code)
	}
	if s, _ := data["accessToken"].(string); s == "" {
		t.Fatalf("missing access token in %v", data)
	}
	if s, _ := data["refreshToken"].(string); s == "" {
		t.Fatalf("missing refresh token in %v", data)
	}
	if data["role"] != "USER" {
		t.Fatalf("role = %v", data["role"])
	}
}

func TestLoginWrongPasswordEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	_, companyID := seedAccount(t, store, "user@example.com", "secret-pw")

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/login",
		`{"email":"user@example.com","password":"wrong","companyId":`+itoa(companyID)+`}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	code, _, _ := decodeEnvelope(t, rec)
	if code != 50000 {
		t.Fatalf("code = %d, want 50000", code)
	}
}

func TestLoginRejectsUnknownFields(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/login",
		`{"email":"a@b.c","password":"x","extra":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	code, _, _ := decodeEnvelope(t, rec)
	if code != 20000 {
		t.Fatalf("code = %d, want 20000", code)
	}
}

func TestLoginMethodNotAllowed(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/auth/login", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("Allow = %q", got)
	}
}

func TestSignUpEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	companyID := store.addCompany(&auth.Company{Name: "Acme", Slug: "acme", Status: auth.CompanyApproved})

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/signup",
		`{"email":"new@example.com","password":"secret-pw","name":"New","phone":"010","companyId":`+itoa(companyID)+`}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	code, _, data := decodeEnvelope(t, rec)
	if code != 10000 {
		t.Fatalf("code = %d", code)
	}
	if data["email"] != "new@example.com" || data["role"] != "USER" {
		t.Fatalf("data = %v", data)
	}
}

func TestSignUpDuplicateEmailEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	_, companyID := seedAccount(t, store, "taken@example.com", "pw")

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/signup",
		`{"email":"taken@example.com","password":"pw","name":"Dup","companyId":`+itoa(companyID)+`}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	code, _, _ := decodeEnvelope(t, rec)
	if code != 30001 {
		t.Fatalf("code = %d, want 30001", code)
	}
}

func TestAdminSignUpEndpoint(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/admin/signup",
		`{"email":"owner@acme.com","password":"secret-pw","name":"Owner","businessNumber":"123-45-67890","companyName":"Acme","companySlug":"acme"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	_, _, data := decodeEnvelope(t, rec)
	if data["role"] != "ADMIN" {
		t.Fatalf("role = %v, want ADMIN", data["role"])
	}
	if data["companyId"] == nil {
		t.Fatal("admin not bound to a company")
	}
}

func TestRefreshEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	_, companyID := seedAccount(t, store, "user@example.com", "secret-pw")

	login := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/login",
		`{"email":"user@example.com","password":"secret-pw","companyId":`+itoa(companyID)+`}`)
	_, _, data := decodeEnvelope(t, login)
	refresh, _ := data["refreshToken"].(string)
	if refresh == "" {
		t.Fatal("login response missing refresh token")
	}

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refresh+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	code, _, refreshed := decodeEnvelope(t, rec)
	if s, _ := refreshed["accessToken"].(string); code != 10000 || s == "" {
		t.Fatalf("refresh response: code=%d data=%v", code, refreshed)
	}
}

func TestRefreshWithAccessTokenEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	_, companyID := seedAccount(t, store, "user@example.com", "secret-pw")

	login := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/login",
		`{"email":"user@example.com","password":"secret-pw","companyId":`+itoa(companyID)+`}`)
	_, _, data := decodeEnvelope(t, login)
	access, _ := data["accessToken"].(string)

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+access+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	code, _, _ := decodeEnvelope(t, rec)
	if code != 50002 {
		t.Fatalf("code = %d, want 50002", code)
	}
}

func TestCheckEmailEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	_, companyID := seedAccount(t, store, "taken@example.com", "pw")

	rec := doJSON(t, api.Handler(), http.MethodGet,
		"/api/users/check-email?email=taken@example.com&companyId="+itoa(companyID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	_, _, data := decodeEnvelope(t, rec)
	if data["available"] != false {
		t.Fatalf("available = %v, want false", data["available"])
	}

	rec = doJSON(t, api.Handler(), http.MethodGet,
		"/api/users/check-email?email=free@example.com&companyId="+itoa(companyID), "")
	_, _, data = decodeEnvelope(t, rec)
	if data["available"] != true {
		t.Fatalf("available = %v, want true", data["available"])
	}
}

func TestCheckEmailBadCompanyID(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet,
		"/api/users/check-email?email=a@b.c&companyId=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFindEmailEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	seedAccount(t, store, "johndoe@example.com", "pw")

	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/users/find-email?phone=010-0000-0000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	_, _, data := decodeEnvelope(t, rec)
	emails, _ := data["emails"].([]any)
	if len(emails) != 1 {
		t.Fatalf("emails = %v", data["emails"])
	}
	if emails[0] != "jo*****@example.com" {
		t.Fatalf("masked = %v", emails[0])
	}
}

func TestResetPasswordEndpoint(t *testing.T) {
	api, store := newTestAPI(t)
	userID, companyID := seedAccount(t, store, "user@example.com", "old-pw")
	before := store.users[userID].PasswordHash

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/users/reset-password",
		`{"email":"user@example.com","companyId":`+itoa(companyID)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.users[userID].PasswordHash == before {
		t.Fatal("password hash unchanged")
	}
}

func TestUnknownRoute(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "unibooker-identity" {
		t.Fatalf("service = %v", body["service"])
	}
}

func TestReadyWithoutDB(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
