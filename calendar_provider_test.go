package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emersion/go-webdav/caldav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestRemoteError_Rejected(t *testing.T) {
	tests := []struct {
		status   int
		rejected bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusPreconditionFailed, true},
		{http.StatusRequestTimeout, false},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := fmt.Errorf("failed to create event: %w", rejected(tt.status, "x"))
			assert.Equal(t, tt.rejected, isRejection(err))
		})
	}

	assert.False(t, isRejection(errors.New("dial tcp: i/o timeout")))
	assert.True(t, isRemoteNotFound(rejected(http.StatusGone, "deleted")))
	assert.False(t, isRemoteNotFound(rejected(http.StatusForbidden, "denied")))
}

func TestGoogleRemoteError(t *testing.T) {
	err := remoteError(&googleapi.Error{Code: http.StatusNotFound, Message: "Not Found"})
	assert.True(t, isRemoteNotFound(err))

	var gerr *googleapi.Error
	assert.ErrorAs(t, err, &gerr, "the API error stays reachable")

	plain := errors.New("oauth2: token expired and refresh token is not set")
	assert.Same(t, plain, remoteError(plain))
}

func newTestCalDAVProvider(t *testing.T, handler http.HandlerFunc) *CalDAVProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := caldav.NewClient(statusClient{next: http.DefaultClient}, srv.URL)
	require.NoError(t, err)
	return &CalDAVProvider{client: client, ctx: context.Background(), serverURL: srv.URL}
}

func TestCalDAVProvider_ErrorsCarryStatus(t *testing.T) {
	c := newTestCalDAVProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.NotFound(w, r)
		default:
			http.Error(w, "read-only calendar", http.StatusForbidden)
		}
	})

	_, err := c.GetEvent("/cal/me/work/", "missing")
	require.Error(t, err)
	assert.True(t, isRemoteNotFound(err))

	err = c.UpdateEvent("/cal/me/work/", "e1", newAllDayEvent("e1", date(2006, 10, 16), "Practice"))
	require.Error(t, err)
	assert.True(t, isRejection(err))
}

func TestCalDAVProvider_NetworkFailureIsNotRejection(t *testing.T) {
	c := newTestCalDAVProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	})

	_, err := c.GetEvent("/cal/me/work/", "e1")
	require.Error(t, err)
	assert.False(t, isRejection(err))

	c.client, err = caldav.NewClient(statusClient{next: http.DefaultClient}, "http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.GetEvent("/cal/me/work/", "e1")
	require.Error(t, err)
	var re *RemoteError
	assert.False(t, errors.As(err, &re))
}
