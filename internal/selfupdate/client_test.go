// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("payload"))
		case "/redirect":
			http.Redirect(w, r, "/ok", http.StatusFound)
		case "/boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient()
	ctx := context.Background()

	got, err := c.Fetch(ctx, srv.URL+"/redirect")
	if err != nil || string(got) != "payload" {
		t.Fatalf("Fetch(redirect) = %q, %v", got, err)
	}

	_, err = c.Fetch(ctx, srv.URL+"/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}

	_, err = c.Fetch(ctx, srv.URL+"/boom")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Errorf("Fetch(boom) error = %v, want StatusError 502", err)
	}
}

func TestClient_FetchOptional(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/err" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient()

	data, found, err := c.FetchOptional(context.Background(), srv.URL+"/x.sha256")
	if err != nil || found || data != nil {
		t.Errorf("FetchOptional(404) = %q, %v, %v", data, found, err)
	}

	_, _, err = c.FetchOptional(context.Background(), srv.URL+"/err")
	if err == nil {
		t.Error("FetchOptional(500) returned no error")
	}
}

func TestClient_FetchTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, _, err := NewClient().FetchOptional(context.Background(), addr+"/kiln.sha256")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("FetchOptional() on closed server: %v", err)
	}
}

func TestClient_TokenOnlyForGitHubHosts(t *testing.T) {
	t.Parallel()

	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	api := NewClient(WithAPIURL(srv.URL), WithToken("secret"), WithUserAgent("kiln/1.0.0"))
	if _, err := api.Fetch(context.Background(), srv.URL+"/asset"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer secret" || gotUA != "kiln/1.0.0" {
		t.Errorf("headers = %q, %q", gotAuth, gotUA)
	}

	other := NewClient(WithToken("secret"))
	if _, err := other.Fetch(context.Background(), srv.URL+"/asset"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("token leaked to non-GitHub host: %q", gotAuth)
	}
}

func TestIsGitHubHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		req  string
		api  string
		want bool
	}{
		{"https://api.github.com/repos", "https://api.github.com", true},
		{"https://github.com/kilnhq/kiln/releases", "https://api.github.com", true},
		{"https://objects.githubusercontent.com/x", "https://api.github.com", false},
		{"https://ghe.corp/api", "https://ghe.corp", true},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.req)
		if err != nil {
			t.Fatal(err)
		}
		if got := isGitHubHost(u, tt.api); got != tt.want {
			t.Errorf("isGitHubHost(%q, %q) = %v, want %v", tt.req, tt.api, got, tt.want)
		}
	}
}

func TestClient_Releases(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/kilnhq/kiln/releases/latest":
			_ = json.NewEncoder(w).Encode(Release{TagName: "v1.2.0"})
		case "/repos/kilnhq/kiln/releases/tags/v1.0.0":
			_ = json.NewEncoder(w).Encode(Release{TagName: "v1.0.0"})
		case "/repos/kilnhq/kiln/releases/tags/limited":
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(WithAPIURL(srv.URL))
	ctx := context.Background()

	if r, err := c.LatestRelease(ctx); err != nil || r.TagName != "v1.2.0" {
		t.Errorf("LatestRelease() = %+v, %v", r, err)
	}
	if r, err := c.ReleaseByTag(ctx, "v1.0.0"); err != nil || r.TagName != "v1.0.0" {
		t.Errorf("ReleaseByTag() = %+v, %v", r, err)
	}
	if _, err := c.ReleaseByTag(ctx, "v9.9.9"); !errors.Is(err, ErrReleaseNotFound) {
		t.Errorf("ReleaseByTag(missing) error = %v", err)
	}
	var rl *RateLimitError
	if _, err := c.ReleaseByTag(ctx, "limited"); !errors.As(err, &rl) || rl.Limit != 60 {
		t.Errorf("ReleaseByTag(limited) error = %v", err)
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	if got := redactURL("https://cdn.example/kiln.gz?sig=abc#frag"); got != "https://cdn.example/kiln.gz" {
		t.Errorf("redactURL() = %q", got)
	}
}
