package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceJSON = `[{"State.Name":"Goa","latitude":"15.29","longitude":"74.12"}]`

func TestLoader_FetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(referenceJSON), 0o600))

	data, err := NewLoader(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, referenceJSON, string(data))
}

func TestLoader_FetchMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_FetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/in.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(referenceJSON))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL + "/in.json")
	data, err := l.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, referenceJSON, string(data))
	assert.Equal(t, srv.URL+"/in.json", l.Location())
}

func TestLoader_FetchURLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLoaderWithClient(srv.URL, srv.Client()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoader_FetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(srv.URL).Fetch(ctx)
	require.Error(t, err)

	_, err = NewLoader("data/in.json").Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/in.json"))
	assert.True(t, isURL("HTTP://example.com"))
	assert.False(t, isURL("data/in.json"))
	assert.False(t, isURL("/abs/path.json"))
}
