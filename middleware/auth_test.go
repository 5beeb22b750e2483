package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpost/inkpost/utils"
)

func newAuthTestEngine(tokens *utils.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(tokens), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"user_id":  ctx.GetUint(ContextUserIDKey),
			"username": ctx.GetString(ContextUsernameKey),
		})
	})
	return r
}

func doAuth(t *testing.T, r *gin.Engine, mutate func(*http.Request)) (*httptest.ResponseRecorder, int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env.Code
}

func TestAuthRequired_BearerHeader(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	r := newAuthTestEngine(tokens)

	tok, err := tokens.Generate(7, "alice")
	require.NoError(t, err)

	w, _ := doAuth(t, r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestAuthRequired_CookieFallback(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	r := newAuthTestEngine(tokens)

	tok, err := tokens.Generate(9, "bob")
	require.NoError(t, err)

	w, _ := doAuth(t, r, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: tok})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)
}

func TestAuthRequired_Failures(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	r := newAuthTestEngine(tokens)

	expiredTok, err := utils.NewTokenManager("secret", -time.Minute).Generate(1, "x")
	require.NoError(t, err)
	wrongKeyTok, err := utils.NewTokenManager("other", time.Hour).Generate(1, "x")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*http.Request)
		code   int
	}{
		{name: "missing token", mutate: nil, code: 40101},
		{
			name:   "malformed header",
			mutate: func(req *http.Request) { req.Header.Set("Authorization", "Token abc") },
			code:   40102,
		},
		{
			name:   "empty bearer",
			mutate: func(req *http.Request) { req.Header.Set("Authorization", "Bearer ") },
			code:   40103,
		},
		{
			name:   "expired",
			mutate: func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+expiredTok) },
			code:   40104,
		},
		{
			name:   "wrong signature",
			mutate: func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+wrongKeyTok) },
			code:   40105,
		},
		{
			name:   "garbage token",
			mutate: func(req *http.Request) { req.Header.Set("Authorization", "Bearer zzz") },
			code:   40105,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w, code := doAuth(t, r, tc.mutate)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tc.code, code)
		})
	}
}
