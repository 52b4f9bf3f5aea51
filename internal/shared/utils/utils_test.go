package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "chuong-mot-khoi-dau", GenerateSlug("Chương Một: Khởi đầu"))
	assert.Equal(t, "the-long-night", GenerateSlug("  The Long -- Night!! "))
	assert.Equal(t, "cafe-noir", GenerateSlug("Café Noir"))
	assert.Equal(t, "", GenerateSlug("???"))
}

func TestExtractClientIPPrefersForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:5555"

	assert.Equal(t, "10.0.0.9", ExtractClientIP(c))

	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ExtractClientIP(c))
	assert.False(t, IsPrivateIP("203.0.113.7"))
	assert.True(t, IsPrivateIP("10.0.0.9"))
}
