// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/hello", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hello, world\n")
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such thing")
	})
	mux.HandleFunc("/form", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		keys := make([]string, 0, len(r.PostForm))
		for k := range r.PostForm {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "%s=%s\n", k, r.PostForm.Get(k))
		}
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for name, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				_, _ = fmt.Fprintf(w, "%s:%s:%s:%d\n", name, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
			}
		}
		_, _ = fmt.Fprintf(w, "title=%s\n", r.FormValue("title"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "httpfacade.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func execute(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestRootCmd(t *testing.T) {
	srv := testServer(t)
	cfg := writeConfig(t, "[cache]\ndisabled = true\n")
	ctx := context.Background()

	t.Run("help", func(t *testing.T) {
		out, _, err := execute(ctx, "--help")
		require.NoError(t, err)
		assert.Contains(t, out, "One-call HTTP fetch, form post and file upload")
		assert.Contains(t, out, "upload")
	})
	t.Run("get", func(t *testing.T) {
		out, _, err := execute(ctx, "--config", cfg, "get", srv.URL+"/hello")
		require.NoError(t, err)
		assert.Equal(t, "hello, world\n", out)
	})
	t.Run("get to file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "out.txt")
		out, _, err := execute(ctx, "-c", cfg, "get", srv.URL+"/hello", "-o", file)
		require.NoError(t, err)
		assert.Empty(t, out)
		b, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, "hello, world\n", string(b))
	})
	t.Run("get not found", func(t *testing.T) {
		_, errOut, err := execute(ctx, "-c", cfg, "get", srv.URL+"/missing")
		assert.EqualError(t, err, "httpfacade: server returned 404 Not Found")
		assert.Contains(t, errOut, "no such thing")
	})
	t.Run("post", func(t *testing.T) {
		out, _, err := execute(ctx, "-c", cfg, "post", srv.URL+"/form", "-f", "b=2", "-f", "a=x=y")
		require.NoError(t, err)
		assert.Equal(t, "a=x=y\nb=2\n", out)
	})
	t.Run("post bad field", func(t *testing.T) {
		_, _, err := execute(ctx, "-c", cfg, "post", srv.URL+"/form", "-f", "novalue")
		assert.EqualError(t, err, `invalid field "novalue", want key=value`)
	})
	t.Run("upload", func(t *testing.T) {
		photo := filepath.Join(t.TempDir(), "photo.png")
		require.NoError(t, os.WriteFile(photo, []byte("12345"), 0o600))
		out, _, err := execute(ctx, "-c", cfg, "upload", srv.URL+"/upload", "-f", "title=trip", "--file", "image="+photo)
		require.NoError(t, err)
		assert.Equal(t, "image:photo.png:image/png:5\ntitle=trip\n", out)
	})
	t.Run("upload bad file flag", func(t *testing.T) {
		_, _, err := execute(ctx, "-c", cfg, "upload", srv.URL+"/upload", "--file", "nopath")
		assert.EqualError(t, err, `invalid --file "nopath", want field=path`)
	})
	t.Run("bad config", func(t *testing.T) {
		bad := writeConfig(t, "max_async = 0\n")
		_, _, err := execute(ctx, "-c", bad, "get", srv.URL+"/hello")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), bad+": config: invalid MaxAsync"), err.Error())
	})
	t.Run("verbose", func(t *testing.T) {
		_, errOut, err := execute(ctx, "-v", "-c", cfg, "get", srv.URL+"/hello")
		require.NoError(t, err)
		assert.Contains(t, errOut, "sending request")
	})
	t.Run("interrupt", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, errOut, err := execute(ctx, "-c", cfg, "--tag", "job", "get", srv.URL+"/slow")
		require.Error(t, err)
		assert.Contains(t, errOut, "interrupted")
	})
	t.Run("interrupted before start", func(t *testing.T) {
		var hits int32
		counted := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			atomic.AddInt32(&hits, 1)
		}))
		defer counted.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, errOut, err := execute(ctx, "-c", cfg, "--tag", "job", "get", counted.URL)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, errOut, "interrupted")
		assert.Zero(t, atomic.LoadInt32(&hits))
	})
}
