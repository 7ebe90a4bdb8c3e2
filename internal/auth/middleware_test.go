package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dom "userapi/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	user dom.User
}

func (r staticResolver) GetByID(_ context.Context, id int64) (dom.User, error) {
	if id != r.user.ID {
		return dom.User{}, errors.New("user not found")
	}
	return r.user, nil
}

func protectedRouter(issuer *TokenIssuer, resolver UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireToken(issuer, resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username})
	})
	return r
}

func TestRequireTokenAllowsValidBearer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	r := protectedRouter(issuer, staticResolver{user: dom.User{ID: 42, Username: "alice"}})

	token, err := issuer.Issue(42, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestRequireTokenRejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	r := protectedRouter(issuer, staticResolver{user: dom.User{ID: 42, Username: "alice"}})

	valid, err := issuer.Issue(42, "alice")
	require.NoError(t, err)
	unknownSubject, err := issuer.Issue(7, "bob")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic " + valid,
		"empty token":     "Bearer ",
		"corrupted token": "Bearer " + valid[:len(valid)-2],
		"unknown subject": "Bearer " + unknownSubject,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.JSONEq(t, `{"error":"authorization required"}`, w.Body.String(), name)
	}
}
