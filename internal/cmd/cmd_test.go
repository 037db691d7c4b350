package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atul-1602/memecraft/memes"
)

func sampleList() *memes.TemplateList {
	return &memes.TemplateList{
		Templates: []memes.Template{
			{ID: "1", Name: "Drake Hotline Bling"},
			{ID: "2", Name: "Two Buttons"},
			{ID: "3", Name: "Drake Blank"},
		},
		Source:    memes.SourcePrimary,
		FetchedAt: time.Now(),
	}
}

func decode(t *testing.T, b []byte) []memes.Template {
	t.Helper()
	var out []memes.Template
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestWriteTemplates(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"all", "", 0, []string{"1", "2", "3"}},
		{"query is case-insensitive", "drake", 0, []string{"1", "3"}},
		{"limit", "", 2, []string{"1", "2"}},
		{"query and limit", "DRAKE", 1, []string{"1"}},
		{"no match", "cat", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeTemplates(&buf, sampleList(), tt.query, tt.limit))

			got := make([]string, 0)
			for _, tpl := range decode(t, buf.Bytes()) {
				got = append(got, tpl.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "memecraft")
}

func TestFetchCommand(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"memes":[
			{"id":"181913649","name":"Drake Hotline Bling","url":"https://i.imgflip.com/30b1gx.jpg","width":1200,"height":1200,"box_count":2},
			{"id":"87743020","name":"Two Buttons","url":"https://i.imgflip.com/1g8my4.jpg","width":600,"height":908,"box_count":3}
		]}}`))
	}))
	t.Cleanup(upstream.Close)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`
logging:
  level: error
upstream:
  endpoint: %s
  relay_prefix: %s/raw?url=
`, upstream.URL, upstream.URL)), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"fetch", "--config", path, "-q", "buttons"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile, fetchQuery, fetchLimit = "", "", 0
	})

	require.NoError(t, ExecuteContext(context.Background()))
	got := decode(t, out.Bytes())
	require.Len(t, got, 1)
	assert.Equal(t, "87743020", got[0].ID)
}
