package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studyon/internal/billing"
	"studyon/internal/logger"
	"studyon/internal/session"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Register(ctx context.Context, username, password string) (*billing.UserAccount, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.UserAccount), args.Error(1)
}

func (m *MockGateway) Authenticate(ctx context.Context, username, password string) (*billing.UserAccount, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.UserAccount), args.Error(1)
}

func (m *MockGateway) CurrentUser(ctx context.Context, token string) (*billing.UserAccount, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.UserAccount), args.Error(1)
}

func (m *MockGateway) Transactions(ctx context.Context, token string, filter billing.TransactionFilter) ([]billing.Transaction, error) {
	args := m.Called(ctx, token, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Transaction), args.Error(1)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Create(ctx context.Context, account *billing.UserAccount) (*session.Session, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendWelcome(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func setupRouter(h *Handler, sess *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if sess != nil {
		router.Use(func(c *gin.Context) {
			c.Set("session", sess)
			c.Next()
		})
	}

	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)
	router.GET("/me", h.Me)
	router.GET("/me/transactions", h.Transactions)
	return router
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	t.Run("creates account, session and welcome email", func(t *testing.T) {
		gateway := new(MockGateway)
		sessions := new(MockSessions)
		notifier := new(MockNotifier)
		h := NewHandler(gateway, sessions, notifier, 3600)

		account := &billing.UserAccount{
			Username: "new@example.com",
			Roles:    []string{"ROLE_USER"},
			Balance:  200,
			Token:    "access",
		}
		gateway.On("Register", mock.Anything, "new@example.com", "secret123").Return(account, nil)
		sessions.On("Create", mock.Anything, account).
			Return(&session.Session{ID: "sess-1", Username: "new@example.com"}, nil)
		notifier.On("SendWelcome", mock.Anything, "new@example.com").Return(nil)

		router := setupRouter(h, nil)
		w := postJSON(router, "/auth/register", RegisterRequest{
			Username: "new@example.com", Password: "secret123",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var profile Profile
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
		assert.Equal(t, "new@example.com", profile.Username)
		assert.Equal(t, float64(200), profile.Balance)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, session.CookieName, cookies[0].Name)
		assert.Equal(t, "sess-1", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)

		notifier.AssertExpectations(t)
	})

	t.Run("duplicate email forwarded from billing", func(t *testing.T) {
		gateway := new(MockGateway)
		sessions := new(MockSessions)
		h := NewHandler(gateway, sessions, nil, 3600)

		gateway.On("Register", mock.Anything, "dup@example.com", "secret123").
			Return(nil, &billing.RejectedError{Status: http.StatusBadRequest, Message: "email already registered"})

		router := setupRouter(h, nil)
		w := postJSON(router, "/auth/register", RegisterRequest{
			Username: "dup@example.com", Password: "secret123",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "email already registered")
		sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid email rejected before billing", func(t *testing.T) {
		gateway := new(MockGateway)
		h := NewHandler(gateway, new(MockSessions), nil, 3600)

		router := setupRouter(h, nil)
		w := postJSON(router, "/auth/register", RegisterRequest{
			Username: "not-an-email", Password: "secret123",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		gateway.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("billing down", func(t *testing.T) {
		gateway := new(MockGateway)
		h := NewHandler(gateway, new(MockSessions), nil, 3600)

		gateway.On("Register", mock.Anything, "new@example.com", "secret123").
			Return(nil, &billing.UnavailableError{})

		router := setupRouter(h, nil)
		w := postJSON(router, "/auth/register", RegisterRequest{
			Username: "new@example.com", Password: "secret123",
		})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), billing.UnavailableMessage)
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		gateway := new(MockGateway)
		sessions := new(MockSessions)
		h := NewHandler(gateway, sessions, nil, 3600)

		account := &billing.UserAccount{Username: "user@example.com", Roles: []string{"ROLE_USER"}, Balance: 120}
		gateway.On("Authenticate", mock.Anything, "user@example.com", "secret123").Return(account, nil)
		sessions.On("Create", mock.Anything, account).
			Return(&session.Session{ID: "sess-2", Username: "user@example.com"}, nil)

		router := setupRouter(h, nil)
		w := postJSON(router, "/auth/login", LoginRequest{
			Username: "user@example.com", Password: "secret123",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sess-2", cookies[0].Value)
	})

	t.Run("wrong password", func(t *testing.T) {
		gateway := new(MockGateway)
		h := NewHandler(gateway, new(MockSessions), nil, 3600)

		gateway.On("Authenticate", mock.Anything, "user@example.com", "wrong").
			Return(nil, &billing.RejectedError{Status: http.StatusUnauthorized, Message: "Invalid credentials."})

		router := setupRouter(h, nil)
		w := postJSON(router, "/auth/login", LoginRequest{
			Username: "user@example.com", Password: "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials.")
	})
}

func TestLogout(t *testing.T) {
	gateway := new(MockGateway)
	sessions := new(MockSessions)
	h := NewHandler(gateway, sessions, nil, 3600)

	sessions.On("Delete", mock.Anything, "sess-1").Return(nil)

	router := setupRouter(h, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sess-1"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	sessions.AssertExpectations(t)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMe(t *testing.T) {
	t.Run("profile straight from billing", func(t *testing.T) {
		gateway := new(MockGateway)
		h := NewHandler(gateway, new(MockSessions), nil, 3600)

		gateway.On("CurrentUser", mock.Anything, "token-1").Return(&billing.UserAccount{
			Username: "user@example.com",
			Roles:    []string{"ROLE_USER"},
			Balance:  75.5,
		}, nil)

		router := setupRouter(h, &session.Session{Username: "user@example.com", AccessToken: "token-1"})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/me", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var profile Profile
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
		assert.Equal(t, 75.5, profile.Balance)
	})

	t.Run("anonymous", func(t *testing.T) {
		h := NewHandler(new(MockGateway), new(MockSessions), nil, 3600)

		router := setupRouter(h, nil)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/me", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTransactions(t *testing.T) {
	gateway := new(MockGateway)
	h := NewHandler(gateway, new(MockSessions), nil, 3600)

	gateway.On("Transactions", mock.Anything, "token-1", billing.TransactionFilter{
		Type:        billing.TransactionPayment,
		CourseCode:  "deep_learning",
		SkipExpired: true,
	}).Return([]billing.Transaction{{ID: 1, Type: billing.TransactionPayment, Amount: 50}}, nil)

	router := setupRouter(h, &session.Session{Username: "user@example.com", AccessToken: "token-1"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me/transactions?type=payment&course_code=deep_learning&skip_expired=true", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var transactions []billing.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transactions))
	require.Len(t, transactions, 1)
	assert.Equal(t, float64(50), transactions[0].Amount)

	gateway.AssertExpectations(t)
}
