package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-analytics-service/backend/models"
)

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, http.StatusNotFound, "Dataset not found", errors.New("boom"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Dataset not found", body.Message)
	assert.Equal(t, "boom", body.Error)
}

func TestDecodeJSONBody(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		max     int64
		wantErr bool
	}{
		{"valid", `{"name":"herbs"}`, 1024, false},
		{"unknown field", `{"name":"herbs","extra":1}`, 1024, true},
		{"malformed", `{"name":`, 1024, true},
		{"too large", `{"name":"herbs"}`, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := DecodeJSONBody(httptest.NewRecorder(), req, tt.max, &dst)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "herbs", dst.Name)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&limit=3", nil)
	page, limit := ExtractPaginationParams(req)
	assert.Equal(t, 2, page)
	assert.Equal(t, 3, limit)

	start, end := Paginate(5, page, limit)
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)

	start, end = Paginate(5, 4, 3)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=500", nil)
	page, limit = ExtractPaginationParams(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", GetClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", GetClientIP(req))
}
