package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func callWithRole(t *testing.T, role string, setRole bool, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if setRole {
		c.Set(ContextUserRole, role)
	}

	called := false
	handlers := gin.HandlersChain{RequireRole(allowed...), func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	}}
	for _, h := range handlers {
		if c.IsAborted() {
			break
		}
		h(c)
	}
	if w.Code == http.StatusOK {
		assert.True(t, called)
	}
	return w.Code
}

func TestRequireRoleAllows(t *testing.T) {
	assert.Equal(t, http.StatusOK, callWithRole(t, "teacher", true, "teacher", "admin"))
	assert.Equal(t, http.StatusOK, callWithRole(t, "admin", true, "teacher", "admin"))
}

func TestRequireRoleForbids(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, callWithRole(t, "student", true, "teacher", "admin"))
}

func TestRequireRoleMissingContext(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, callWithRole(t, "", false, "admin"))
}
