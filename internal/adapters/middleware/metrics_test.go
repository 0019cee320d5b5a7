package middleware

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	babyID := uuid.New()

	assert.Equal(t, "/babies/:id", normalizePath("/babies/"+babyID.String()))
	assert.Equal(t, "/babies/:id/dosing/check", normalizePath("/babies/"+babyID.String()+"/dosing/check"))
	assert.Equal(t, "/babies/:id/growth/weight/percentile", normalizePath("/babies/"+babyID.String()+"/growth/weight/percentile"))
	assert.Equal(t, "/health", normalizePath("/health"))
	assert.Equal(t, "/babies", normalizePath("/babies"))
}
