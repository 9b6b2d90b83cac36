package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrade/pkg/errors"
)

type fakeVerifier struct {
	uid string
}

func (v *fakeVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if token != "valid-token" {
		return "", errors.Unauthenticated("Invalid or expired token", nil)
	}
	return v.uid, nil
}

func invoke(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/chats", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenUID string
	m := NewAuthMiddleware(&fakeVerifier{uid: "user-42"})
	handler := m.Authenticate(func(c echo.Context) error {
		seenUID = c.Get("uid").(string)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	return rec, seenUID
}

func TestAuthenticateSetsUID(t *testing.T) {
	rec, uid := invoke(t, "Bearer valid-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", uid)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	rec, _ := invoke(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	rec, _ := invoke(t, "Token valid-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	rec, _ := invoke(t, "Bearer bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
