package report_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/itsm-lab/halosync/pkg/domain/types"
	"github.com/itsm-lab/halosync/pkg/service/report"
)

type stubTokens struct {
	token       string
	err         error
	invalidated atomic.Int64
}

func (s *stubTokens) GetValidToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func (s *stubTokens) Invalidate() {
	s.invalidated.Add(1)
}

func TestFetchExistingIDs_UnionsResources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer test")

		switch r.URL.Path {
		case "/api/report/1":
			fmt.Fprint(w, `[{"existingActionIds":"1,2,3"},{"existingActionIds":"4"}]`)
		case "/api/report/2":
			fmt.Fprint(w, `[{"existingActionIds":"3, 5 ,"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL + "/api/report/1", srv.URL + "/api/report/2"})
	gt.NoError(t, err).Required()

	ids, err := client.FetchExistingIDs(context.Background())
	gt.NoError(t, err).Required()

	gt.Number(t, ids.Len()).Equal(5)
	for _, id := range []types.ActionID{"1", "2", "3", "4", "5"} {
		gt.Bool(t, ids.Has(id)).True()
	}
	gt.Bool(t, ids.Has("6")).False()
}

func TestFetchExistingIDs_RetriesGatewayFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		fmt.Fprint(w, `[{"existingActionIds":"7"}]`)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL},
		report.WithCooldown(time.Millisecond),
	)
	gt.NoError(t, err).Required()

	ids, err := client.FetchExistingIDs(context.Background())
	gt.NoError(t, err).Required()
	gt.Bool(t, ids.Has("7")).True()
	gt.Number(t, hits.Load()).Equal(3)
	// each backoff drops the token before retrying
	gt.Number(t, tokens.invalidated.Load()).Equal(2)
}

func TestFetchExistingIDs_GatewayFailureCeiling(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL},
		report.WithCooldown(time.Millisecond),
		report.WithMaxTransientRetries(2),
	)
	gt.NoError(t, err).Required()

	_, err = client.FetchExistingIDs(context.Background())
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagTransient)).True()
	gt.Number(t, hits.Load()).Equal(3) // initial attempt plus two retries
}

func TestFetchExistingIDs_RefreshesOnUnauthorized(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"existingActionIds":"8"}]`)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL})
	gt.NoError(t, err).Required()

	ids, err := client.FetchExistingIDs(context.Background())
	gt.NoError(t, err).Required()
	gt.Bool(t, ids.Has("8")).True()
	gt.Number(t, tokens.invalidated.Load()).Equal(1)
}

func TestFetchExistingIDs_UnauthorizedTwice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL})
	gt.NoError(t, err).Required()

	_, err = client.FetchExistingIDs(context.Background())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrAuthExpired)).True()
}

func TestFetchExistingIDs_EmptyReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL})
	gt.NoError(t, err).Required()

	_, err = client.FetchExistingIDs(context.Background())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrEmptyReport)).True()
}

func TestFetchExistingIDs_EmptyBody(t *testing.T) {
	// zero bytes is an empty report, not a protocol failure
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL})
	gt.NoError(t, err).Required()

	_, err = client.FetchExistingIDs(context.Background())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrEmptyReport)).True()
	gt.Bool(t, goerr.HasTag(err, types.TagProtocol)).False()
}

func TestFetchExistingIDs_UnparseableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":"shape"}`)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL})
	gt.NoError(t, err).Required()

	_, err = client.FetchExistingIDs(context.Background())
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagProtocol)).True()
}

func TestFetchExistingIDs_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "Bearer test"}
	client, err := report.New(tokens, []string{srv.URL})
	gt.NoError(t, err).Required()

	_, err = client.FetchExistingIDs(context.Background())
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagRemote)).True()
}

func TestNew_Validation(t *testing.T) {
	_, err := report.New(nil, []string{"https://example.test/report"})
	gt.Error(t, err)

	_, err = report.New(&stubTokens{token: "Bearer test"}, nil)
	gt.Error(t, err)
}
