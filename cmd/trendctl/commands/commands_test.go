package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/trendscout/models"
)

func testRecord() *models.SnapshotRecord {
	return &models.SnapshotRecord{
		TrendSnapshot: models.TrendSnapshot{
			UniqueID:  "4f1d8a02-1b7e-4c55-9a1f-2d7c3b6e9e10",
			Topics:    []string{"TopicA", "TopicB"},
			Timestamp: "2026-10-17 14:02:59",
			IPAddress: "203.0.113.7",
		},
		ID: "7",
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, testRecord())

	out := buf.String()
	assert.Contains(t, out, "TopicA")
	assert.Contains(t, out, "TopicB")
	assert.Contains(t, out, "203.0.113.7")
	assert.Contains(t, out, "4f1d8a02-1b7e-4c55-9a1f-2d7c3b6e9e10")
	assert.NotContains(t, out, "4F1D8A02")
	assert.Contains(t, out, "unique_id")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("TopicA")), bytes.Index(buf.Bytes(), []byte("TopicB")))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, testRecord()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "7", got["_id"])
	assert.Equal(t, []any{"TopicA", "TopicB"}, got["trending_topics"])
}

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/trends", r.URL.Path)
		if r.Header.Get("X-API-Key") != "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Code: models.ErrCodeUnauthorized, Error: "invalid API key"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.TrendsResponse{Message: "Data saved successfully", Data: testRecord()})
	}))
	defer srv.Close()

	rec, err := fetchSnapshot(t.Context(), srv.Client(), srv.URL+"/", "k1")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, []string{"TopicA", "TopicB"}, rec.Topics)

	_, err = fetchSnapshot(t.Context(), srv.Client(), srv.URL, "bad")
	assert.ErrorContains(t, err, "invalid API key")
	assert.ErrorContains(t, err, "HTTP 401")
}
