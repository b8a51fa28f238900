package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
	_, err = NewClient("localhost:8080")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	c, err := NewClient("http://localhost:8080///")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
}

func TestCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/templates", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"templates":[{"id":"classic","name":"Classic","accent_color":"#000000"}],"formats":["pdf","word"]}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.SetToken("tok")

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Templates, 1)
	assert.Equal(t, "classic", cat.Templates[0].ID)
	assert.Equal(t, []string{"pdf", "word"}, cat.Formats)
}

func TestRenderLetterhead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req LetterheadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Acme", req.Sender.CompanyName)

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename=letter.pdf; filename*=UTF-8''letter.pdf`)
		w.Header().Set("X-Page-Count", "2")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	f, err := c.RenderLetterhead(context.Background(), LetterheadRequest{Sender: Sender{CompanyName: "Acme"}})
	require.NoError(t, err)
	assert.Equal(t, "letter.pdf", f.Filename)
	assert.Equal(t, 2, f.Pages)
	assert.Equal(t, []byte("%PDF-1.7"), f.Data)
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"VALIDATION_ERROR","message":"request validation failed","details":{"format":"must be one of pdf, word"}}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.RenderLetterhead(context.Background(), LetterheadRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400: VALIDATION_ERROR")
	assert.Contains(t, err.Error(), "format")
}
