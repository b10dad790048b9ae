package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kdange/portfolio/internal/api/dto/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.0.2.10"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.5"}, "203.0.113.5"},
		{"first forwarded", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"garbage header falls back", map[string]string{"X-Real-IP": "<script>"}, "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "192.0.2.10:5555"
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}

func TestHandleAPIErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/send-message", nil)

	HandleAPIError(c, errors.New("535 5.7.8 Username and Password not accepted"), http.StatusInternalServerError, "Something went wrong.")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "535")

	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Something went wrong.", resp.Message)
}

func TestHandleSuccessAndData(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	HandleSuccess(c, "done")
	assert.JSONEq(t, `{"success":true,"message":"done"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	HandleData(c, "OK", map[string]int{"used": 1})
	assert.JSONEq(t, `{"success":true,"message":"OK","data":{"used":1}}`, rec.Body.String())
}
