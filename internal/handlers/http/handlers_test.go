package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/services"
	"queuecast/internal/infrastructure/locking"
	"queuecast/internal/infrastructure/middleware"
	"queuecast/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type captureBroadcaster struct {
	mu    sync.Mutex
	calls []domain.QueueID
}

func (b *captureBroadcaster) Broadcast(_ context.Context, queueID domain.QueueID, _ []*domain.QueueItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, queueID)
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type apiFixture struct {
	router *gin.Engine
	bc     *captureBroadcaster
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := services.NewAuthService("handler-secret", time.Hour)
	users := services.NewUserService(memory.NewMemoryUserRepository(), auth, bcrypt.MinCost, nil)
	bc := &captureBroadcaster{}
	queues := services.NewQueueService(
		memory.NewMemoryQueueRepository(),
		memory.NewMemoryItemRepository(),
		locking.NewLocalLocker(time.Second),
		bc,
	)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	NewUserHandler(users, 3600, false).SetupRoutes(router)
	NewQueueHandler(queues, nil).SetupRoutes(router, middleware.AuthMiddleware(auth))

	return &apiFixture{router: router, bc: bc}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) register(t *testing.T, name, email string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/user/register", "", gin.H{"name": name, "email": email, "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (f *apiFixture) createQueue(t *testing.T, token, name string) domain.Queue {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/queue", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var q domain.Queue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	return q
}

func (f *apiFixture) items(t *testing.T, queueID domain.QueueID) []domain.QueueItem {
	t.Helper()
	w := f.do(t, http.MethodGet, "/api/v1/queue/"+idString(int64(queueID))+"/items", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []domain.QueueItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	return items
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Message
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestQueueAPI_FrontDeskScenario(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "Ana", "ana@example.com")
	q := f.createQueue(t, token, "Front Desk")
	base := "/api/v1/queue/" + idString(int64(q.ID))

	for _, name := range []string{"Alice", "Bob"} {
		w := f.do(t, http.MethodPost, base+"/add-to-end", token, gin.H{"item": name})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Item added to end of queue", message(t, w))
	}

	w := f.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var popped struct {
		Message string            `json:"message"`
		Item    *domain.QueueItem `json:"item"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &popped))
	assert.Equal(t, "Next item processed", popped.Message)
	require.NotNil(t, popped.Item)
	assert.Equal(t, "Alice", popped.Item.Text)
	assert.Equal(t, 1, popped.Item.Position)

	remaining := f.items(t, q.ID)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Bob", remaining[0].Text)
	assert.Equal(t, 2, remaining[0].Position)
	assert.Equal(t, 3, f.bc.count())
}

func TestQueueAPI_PopEmptyQueue(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "Ana", "ana@example.com")
	q := f.createQueue(t, token, "Empty")

	w := f.do(t, http.MethodPost, "/api/v1/queue/"+idString(int64(q.ID))+"/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Queue is empty","item":null}`, w.Body.String())
	assert.Equal(t, 0, f.bc.count())
}

func TestQueueAPI_AddUpdateRemoveItem(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "Ana", "ana@example.com")
	q := f.createQueue(t, token, "Lab")
	base := "/api/v1/queue/" + idString(int64(q.ID))

	w := f.do(t, http.MethodPost, base, token, gin.H{"text": "second", "position": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Queue item added", message(t, w))
	w = f.do(t, http.MethodPost, base, token, gin.H{"text": "first", "position": 2})
	require.Equal(t, http.StatusOK, w.Code)

	items := f.items(t, q.ID)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Text)

	itemPath := "/api/v1/items/" + idString(int64(items[0].ID))
	w = f.do(t, http.MethodPut, itemPath, token, gin.H{"text": "last", "position": 9})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Queue item updated", message(t, w))

	items = f.items(t, q.ID)
	assert.Equal(t, "second", items[0].Text)
	assert.Equal(t, "last", items[1].Text)

	w = f.do(t, http.MethodDelete, itemPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Queue item removed", message(t, w))
	assert.Len(t, f.items(t, q.ID), 1)

	w = f.do(t, http.MethodDelete, itemPath, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Queue not found", message(t, w))
}

func TestQueueAPI_ValidationErrors(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "Ana", "ana@example.com")
	q := f.createQueue(t, token, "Lab")
	base := "/api/v1/queue/" + idString(int64(q.ID))

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		msg    string
	}{
		{"empty queue name", http.MethodPost, "/api/v1/queue", gin.H{"name": "  "}, "Name is required"},
		{"missing item text", http.MethodPost, base + "/add-to-end", gin.H{}, "item is required"},
		{"missing position", http.MethodPost, base, gin.H{"text": "x"}, "position is required"},
		{"bad queue id", http.MethodGet, "/api/v1/queue/abc", nil, "Invalid queue id"},
		{"unknown queue", http.MethodGet, "/api/v1/queue/999", nil, "Queue not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, message(t, w))
		})
	}
}

func TestQueueAPI_OwnershipEnforced(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.register(t, "Owner", "owner@example.com")
	other := f.register(t, "Other", "other@example.com")
	q := f.createQueue(t, owner, "Private")
	base := "/api/v1/queue/" + idString(int64(q.ID))

	w := f.do(t, http.MethodDelete, base, other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You are not allowed to delete this queue", message(t, w))

	w = f.do(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/queue", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.do(t, http.MethodDelete, base, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Queue deleted", message(t, w))
}

func TestQueueAPI_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/queue", "", gin.H{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", message(t, w))
}

func TestUserAPI_LoginCookieAndVerify(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "Ana", "ana@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/user/login", "", gin.H{"email": "ANA@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := w.Result()
	defer resp.Body.Close()
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/verify-token", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var verified struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	assert.Equal(t, "Ana", verified.Name)
	assert.Equal(t, "ana@example.com", verified.Email)

	w = f.do(t, http.MethodPost, "/api/v1/user/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User logged out successfully", message(t, w))
}

func TestUserAPI_Failures(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "Ana", "ana@example.com")

	w := f.do(t, http.MethodPost, "/api/v1/user/register", "", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", message(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/user/login", "", gin.H{"email": "ana@example.com", "password": "wrong-one"})
	assert.Equal(t, "Invalid password", message(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/user/login", "", gin.H{"email": "nobody@example.com", "password": "secret123"})
	assert.Equal(t, "User not found", message(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/user/verify-token", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid token", message(t, w))
}
