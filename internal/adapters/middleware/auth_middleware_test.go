package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*middleware.AuthMiddleware, *rsa.PrivateKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	m := middleware.NewAuthMiddleware(&privateKey.PublicKey)
	t.Cleanup(m.Stop)
	return m, privateKey
}

func signToken(t *testing.T, privateKey *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

func caregiverClaims(userID uuid.UUID) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  userID.String(),
		"role": middleware.RoleCaregiver,
		"jti":  uuid.New().String(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m, privateKey := newAuthFixture(t)

	userID := uuid.New()
	tokenString := signToken(t, privateKey, caregiverClaims(userID))

	var gotUserID, gotRole string
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = middleware.GetUserID(r.Context())
		gotRole, _ = middleware.GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/babies", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), gotUserID)
	assert.Equal(t, middleware.RoleCaregiver, gotRole)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m, _ := newAuthFixture(t)

	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest("GET", "/babies", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	m, _ := newAuthFixture(t)

	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest("GET", "/babies", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	m, privateKey := newAuthFixture(t)

	claims := caregiverClaims(uuid.New())
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	tokenString := signToken(t, privateKey, claims)

	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest("GET", "/babies", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_WrongKey(t *testing.T) {
	m, _ := newAuthFixture(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokenString := signToken(t, otherKey, caregiverClaims(uuid.New()))

	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest("GET", "/babies", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_CachedTokenSkipsReverification(t *testing.T) {
	m, privateKey := newAuthFixture(t)

	tokenString := signToken(t, privateKey, caregiverClaims(uuid.New()))

	calls := 0
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	// Same JTI twice: second request is served from the claims cache
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/babies", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2, calls)
}

func TestRequireRole_AdminAllowed(t *testing.T) {
	m, privateKey := newAuthFixture(t)

	claims := caregiverClaims(uuid.New())
	claims["role"] = middleware.RoleAdmin
	tokenString := signToken(t, privateKey, claims)

	handler := m.RequireRole(middleware.RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/babies", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRequireRole_CaregiverForbidden(t *testing.T) {
	m, privateKey := newAuthFixture(t)

	tokenString := signToken(t, privateKey, caregiverClaims(uuid.New()))

	handler := m.RequireRole(middleware.RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest("POST", "/babies", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
