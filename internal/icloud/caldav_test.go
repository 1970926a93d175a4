package icloud

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "/123/calendars/home/fora-7@fora.ics", ObjectPath("/123/calendars/home/", "fora-7@fora"))
}

func TestUserAgentTransport(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &userAgentTransport{base: http.DefaultTransport}}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, userAgent, got)
	assert.Empty(t, req.Header.Get("User-Agent"), "the caller's request is not modified")
}
