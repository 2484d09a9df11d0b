package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/aitelhq/supportbot/internal/store"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &AuthHandler{Store: &store.Store{DB: db}, Secret: []byte("test-secret")}
	return h, mock, func() { db.Close() }
}

func postAuth(t *testing.T, path, body string, h echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestSignupRejectsShortPassword(t *testing.T) {
	h, _, done := newAuthHandler(t)
	defer done()

	_, err := postAuth(t, "/api/auth/signup", `{"email":"a@b.com","password":"short"}`, h.signup)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %#v", err)
	}
}

func TestSignupCreatesUser(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO team_users (email, password_hash) VALUES ($1,$2)`)).
		WithArgs("a@b.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, err := postAuth(t, "/api/auth/signup", `{"email":"a@b.com","password":"longenough"}`, h.signup)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoginIssuesTokenAndCookie(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, err := bcrypt.GenerateFromPassword([]byte("longenough"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password_hash FROM team_users WHERE email=$1`)).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u-1", string(hash)))

	rec, err := postAuth(t, "/api/auth/login", `{"email":"a@b.com","password":"longenough"}`, h.login)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token in the body")
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, ck := range cookies {
		if ck.Name == "auth" && ck.Value == resp.Token {
			found = true
		}
	}
	if !found {
		t.Fatal("expected auth cookie matching body token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, err := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password_hash FROM team_users WHERE email=$1`)).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u-1", string(hash)))

	_, err = postAuth(t, "/api/auth/login", `{"email":"a@b.com","password":"wrongpassword"}`, h.login)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %#v", err)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h, _, done := newAuthHandler(t)
	defer done()

	rec, err := postAuth(t, "/api/auth/logout", ``, h.logout)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected auth cookie to be expired")
	}
}
