package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		limit int64
		want  int64
	}{
		{"exact fit", 20, 10, 2},
		{"partial last page", 21, 10, 3},
		{"fewer than one page", 3, 10, 1},
		{"empty", 0, 10, 0},
		{"limit one", 5, 1, 5},
		{"zero limit", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.total, tt.limit))
		})
	}
}

func TestPaginatedEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, "Users retrieved", []string{"a", "b"}, 21, 2, 10)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got PagedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, int64(21), got.Total)
	assert.Equal(t, int64(2), got.Page)
	assert.Equal(t, int64(3), got.TotalPages)
}

func TestErrorOmitsEmptyDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "User not found", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "error", got["status"])
	assert.NotContains(t, got, "error")
}

func TestValidationErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"email": "Email is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Validation failed", got.Message)

	fields, ok := got.Error.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Email is required", fields["email"])
}
