package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/itsm-lab/halosync/pkg/service/auth"
)

func tokenServer(t *testing.T, fetches *atomic.Int64, expiresIn int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPost)
		gt.NoError(t, r.ParseForm())
		gt.Value(t, r.PostForm.Get("grant_type")).Equal("client_credentials")
		gt.Value(t, r.PostForm.Get("scope")).Equal("all")
		gt.Value(t, r.PostForm.Get("client_id")).Equal("test-client")
		gt.Value(t, r.PostForm.Get("client_secret")).Equal("test-secret")

		n := fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func TestGetValidToken_CachesUntilExpiry(t *testing.T) {
	var fetches atomic.Int64
	srv := tokenServer(t, &fetches, 3600)
	defer srv.Close()

	client, err := auth.New(srv.URL, "test-client", "test-secret")
	gt.NoError(t, err).Required()

	ctx := context.Background()
	first, err := client.GetValidToken(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, first).Equal("Bearer token-1")

	second, err := client.GetValidToken(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, second).Equal("Bearer token-1")
	gt.Number(t, fetches.Load()).Equal(1)
}

func TestGetValidToken_RefreshesNearExpiry(t *testing.T) {
	var fetches atomic.Int64
	srv := tokenServer(t, &fetches, 60)
	defer srv.Close()

	now := time.Now()
	clock := now
	client, err := auth.New(srv.URL, "test-client", "test-secret",
		auth.WithClock(func() time.Time { return clock }),
	)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	first, err := client.GetValidToken(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, first).Equal("Bearer token-1")

	// within the 30s safety margin of a 60s token
	clock = now.Add(45 * time.Second)
	second, err := client.GetValidToken(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, second).Equal("Bearer token-2")
	gt.Number(t, fetches.Load()).Equal(2)
}

func TestGetValidToken_ConcurrentCallersShareOneFetch(t *testing.T) {
	var fetches atomic.Int64

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		<-release
		fmt.Fprint(w, `{"access_token":"shared","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	client, err := auth.New(srv.URL, "test-client", "test-secret")
	gt.NoError(t, err).Required()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = client.GetValidToken(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	gt.Number(t, fetches.Load()).Equal(1)
	for i := 0; i < callers; i++ {
		gt.NoError(t, errs[i])
		gt.Value(t, results[i]).Equal("Bearer shared")
	}
}

func TestGetValidToken_InvalidateForcesRefresh(t *testing.T) {
	var fetches atomic.Int64
	srv := tokenServer(t, &fetches, 3600)
	defer srv.Close()

	client, err := auth.New(srv.URL, "test-client", "test-secret")
	gt.NoError(t, err).Required()

	ctx := context.Background()
	_, err = client.GetValidToken(ctx)
	gt.NoError(t, err).Required()
	client.Invalidate()

	v, err := client.GetValidToken(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, v).Equal("Bearer token-2")
	gt.Number(t, fetches.Load()).Equal(2)
}

func TestGetValidToken_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := auth.New(srv.URL, "test-client", "test-secret")
	gt.NoError(t, err).Required()

	_, err = client.GetValidToken(context.Background())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrAuthenticationFailed)).True()
}

func TestGetValidToken_OAuthErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"invalid_client","error_description":"unknown client"}`)
	}))
	defer srv.Close()

	client, err := auth.New(srv.URL, "test-client", "test-secret")
	gt.NoError(t, err).Required()

	_, err = client.GetValidToken(context.Background())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrAuthenticationFailed)).True()
}

func TestGetValidToken_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	client, err := auth.New(srv.URL, "test-client", "test-secret")
	gt.NoError(t, err).Required()

	_, err = client.GetValidToken(context.Background())
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagProtocol)).True()
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := auth.New("", "id", "secret")
	gt.Error(t, err)

	_, err = auth.New("https://example.test/auth/token", "", "secret")
	gt.Error(t, err)

	_, err = auth.New("https://example.test/auth/token", "id", "")
	gt.Error(t, err)
}
