package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	tok, err := IssueToken("secret", "u1", time.Minute)
	require.NoError(t, err)

	uid, err := ParseToken("secret", tok)
	require.NoError(t, err)
	require.Equal(t, "u1", uid)

	_, err = ParseToken("other-secret", tok)
	require.Error(t, err)
}

func TestParseExpiredToken(t *testing.T) {
	tok, err := IssueToken("secret", "u1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", tok)
	require.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired("secret"), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// 无 token
	require.Equal(t, http.StatusUnauthorized, do("").Code)

	// 格式错误
	require.Equal(t, http.StatusUnauthorized, do("Token abc").Code)

	// 伪造 token
	require.Equal(t, http.StatusUnauthorized, do("Bearer not-a-jwt").Code)

	tok, err := IssueToken("secret", "u1", time.Minute)
	require.NoError(t, err)
	w := do("Bearer " + tok)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", w.Body.String())
}
