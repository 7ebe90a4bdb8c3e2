package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"userapi/internal/auth"
	dom "userapi/internal/domain"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memRepo is an in-memory stand-in for the Postgres repo.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]dom.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[int64]dom.User)}
}

func (r *memRepo) Create(_ context.Context, u dom.User) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return dom.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	return u, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *memRepo) GetByUsername(_ context.Context, username string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []dom.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, r.users[id])
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, id int64, u dom.User) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	u.ID = id
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return u, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

// newTestRouter wires the real handlers and middleware over the in-memory repo.
func newTestRouter(t *testing.T) (*gin.Engine, *service.UserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemRepo()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	userSvc := service.NewUserService(repo, hasher, nil)
	authSvc := service.NewAuthService(repo, hasher, issuer)

	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(authSvc).Login)

	h := NewUserHandler(userSvc)
	protected := r.Group("", auth.RequireToken(issuer, userSvc))
	protected.POST("/usuarios", h.Create)
	protected.GET("/usuarios", h.List)
	protected.GET("/usuarios/:id", h.GetByID)
	protected.PUT("/usuarios/:id", h.Update)
	protected.DELETE("/usuarios/:id", h.Delete)

	return r, userSvc
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func seedUser(t *testing.T, svc *service.UserService, username, password string) dom.User {
	t.Helper()
	u, err := svc.Create(context.Background(), service.CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return u
}

func TestLoginFlow(t *testing.T) {
	r, svc := newTestRouter(t)
	seedUser(t, svc, "alice", "secret1")

	t.Run("correct credentials", func(t *testing.T) {
		loginToken(t, r, "alice", "secret1")
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user looks identical to wrong password", func(t *testing.T) {
		wrong := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
		unknown := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"username": "nobody", "password": "secret1"})
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("missing body fields", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	r, svc := newTestRouter(t)
	seedUser(t, svc, "alice", "secret1")
	token := loginToken(t, r, "alice", "secret1")

	t.Run("valid token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/usuarios", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/usuarios", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("corrupted token", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/usuarios", token[:len(token)-2], nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateUser(t *testing.T) {
	r, svc := newTestRouter(t)
	seedUser(t, svc, "admin", "secret1")
	token := loginToken(t, r, "admin", "secret1")

	t.Run("created and hash never leaves the server", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/usuarios", token, gin.H{
			"username": "alice", "email": "a@x.com", "password": "secret1",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "alice", body["username"])
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "password_hash")
		assert.NotContains(t, w.Body.String(), "secret1")

		loginToken(t, r, "alice", "secret1")
	})

	t.Run("invalid email", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/usuarios", token, gin.H{
			"username": "bob", "email": "not-an-email", "password": "secret1",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/usuarios", token, gin.H{
			"username": "bob", "email": "b@x.com", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/usuarios", token, gin.H{
			"username": "alice", "email": "a2@x.com", "password": "secret1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetUpdateDeleteUser(t *testing.T) {
	r, svc := newTestRouter(t)
	seedUser(t, svc, "admin", "secret1")
	token := loginToken(t, r, "admin", "secret1")

	t.Run("get by id", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/usuarios/1", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin")
	})

	t.Run("get unknown id", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/usuarios/999", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("get bad id", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/usuarios/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/usuarios/1", token, gin.H{"email": "new@x.com"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "new@x.com", body["email"])
		assert.Equal(t, "admin", body["username"])
	})

	t.Run("update unknown id", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/usuarios/999", token, gin.H{"email": "new@x.com"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		w := doJSON(r, http.MethodDelete, "/usuarios/999", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		other := seedUser(t, svc, "victim", "secret1")
		require.Equal(t, int64(2), other.ID)

		w := doJSON(r, http.MethodDelete, "/usuarios/2", token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(r, http.MethodGet, "/usuarios/2", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListUsersPagination(t *testing.T) {
	r, svc := newTestRouter(t)
	for i := 0; i < 15; i++ {
		seedUser(t, svc, "user"+string(rune('a'+i)), "secret1")
	}
	token := loginToken(t, r, "usera", "secret1")

	w := doJSON(r, http.MethodGet, "/usuarios?limit=10&page=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 5)
	assert.Equal(t, int64(11), resp.Items[0].ID)
}
