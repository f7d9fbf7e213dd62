package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/allisson/envelope/internal/httputil"
)

func TestParseLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		url           string
		expectedLimit int
		expectError   bool
	}{
		{name: "default value", url: "/", expectedLimit: 50},
		{name: "custom value", url: "/?limit=20", expectedLimit: 20},
		{name: "max limit", url: "/?limit=200", expectedLimit: 200},
		{name: "over max", url: "/?limit=201", expectError: true},
		{name: "zero", url: "/?limit=0", expectError: true},
		{name: "negative", url: "/?limit=-1", expectError: true},
		{name: "not a number", url: "/?limit=abc", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			limit, err := httputil.ParseLimit(c, 50, 200)
			if tt.expectError {
				assert.EqualError(t, err, "invalid limit parameter: must be between 1 and 200")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedLimit, limit)
		})
	}
}
