package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFieldProviders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/fields", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string][]string{
			"providers": {"FISC", "atm"},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	providers, err := client.ListFieldProviders()

	require.NoError(t, err)
	assert.Equal(t, []string{"FISC", "atm"}, providers)
}

func TestGetFieldTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/fields/FISC", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(FieldTable{
			Provider: "FISC",
			Fields: []FieldDefinition{
				{
					Number:         2,
					Name:           "PAN",
					Type:           "NUMERIC",
					LengthType:     "LLVAR",
					Length:         19,
					DataEncoding:   "BCD",
					LengthEncoding: "BCD",
					Sensitive:      true,
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	table, err := client.GetFieldTable("FISC")

	require.NoError(t, err)
	assert.Equal(t, "FISC", table.Provider)
	require.Len(t, table.Fields, 1)
	assert.Equal(t, 2, table.Fields[0].Number)
	assert.True(t, table.Fields[0].Sensitive)
}

func TestGetFieldTable_UnknownProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(APIError{
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Unknown field table provider: nope",
		})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	table, err := client.GetFieldTable("nope")

	assert.Nil(t, table)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
}

func TestReloadFieldTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/fields/atm/reload", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(ReloadResult{Provider: "atm", Fields: 42})
	}))
	defer server.Close()

	client := New(server.URL).WithToken("test-token")
	result, err := client.ReloadFieldTable("atm")

	require.NoError(t, err)
	assert.Equal(t, "atm", result.Provider)
	assert.Equal(t, 42, result.Fields)
}
