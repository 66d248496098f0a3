package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/happyhackingspace/textcat"
	"github.com/happyhackingspace/textcat/internal/testmodel"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) *textcat.Classifier {
	t.Helper()
	c, err := textcat.LoadJSON(testmodel.JSON())
	require.NoError(t, err)
	return c
}

func newTestServer(t *testing.T, opts Options) (*Server, http.Handler) {
	t.Helper()
	s := New(newTestClassifier(t), opts)
	return s, s.Handler()
}

func serve(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) textcat.Result {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
	var res textcat.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func assertJSONError(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rr.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.NotEmpty(t, payload["error"])
}

func TestClassifyHTMLBody(t *testing.T) {
	_, h := newTestServer(t, Options{})
	html := "<html><body><p>" + testmodel.Pages["crypto-crypto"] + "</p></body></html>"

	res := decodeResult(t, serve(h, http.MethodPost, "/classify", "text/html", html))
	require.True(t, res.Classified)
	require.Equal(t, "crypto-crypto", res.Label())
}

func TestClassifyTextFormat(t *testing.T) {
	_, h := newTestServer(t, Options{})

	res := decodeResult(t, serve(h, http.MethodPost, "/classify?format=text", "text/plain", testmodel.Pages["sports-soccer"]))
	require.Equal(t, "sports-soccer", res.Label())
}

func TestClassifyJSONBody(t *testing.T) {
	_, h := newTestServer(t, Options{})

	body, err := json.Marshal(map[string]string{"text": testmodel.Pages["food-cooking"]})
	require.NoError(t, err)
	res := decodeResult(t, serve(h, http.MethodPost, "/classify", "application/json", string(body)))
	require.Equal(t, "food-cooking", res.Label())

	assertJSONError(t, serve(h, http.MethodPost, "/classify", "application/json", "{"), http.StatusBadRequest)
	assertJSONError(t, serve(h, http.MethodPost, "/classify", "application/json", `{}`), http.StatusBadRequest)
	assertJSONError(t, serve(h, http.MethodPost, "/classify", "application/json", `{"text":"a","html":"b"}`), http.StatusBadRequest)
}

func TestClassifyShortPage(t *testing.T) {
	_, h := newTestServer(t, Options{})

	res := decodeResult(t, serve(h, http.MethodPost, "/classify?format=text", "", "bitcoin"))
	require.False(t, res.Classified)
	require.Empty(t, res.Predictions)
}

func TestClassifyMethodNotAllowed(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := serve(h, http.MethodGet, "/classify", "", "")
	assertJSONError(t, rr, http.StatusMethodNotAllowed)
	require.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestClassifyBodyTooLarge(t *testing.T) {
	_, h := newTestServer(t, Options{MaxBodyBytes: 16})

	assertJSONError(t, serve(h, http.MethodPost, "/classify", "", strings.Repeat("x", 64)), http.StatusRequestEntityTooLarge)
}

func TestInfo(t *testing.T) {
	req := require.New(t)
	_, h := newTestServer(t, Options{})

	rr := serve(h, http.MethodGet, "/info", "", "")
	req.Equal(http.StatusOK, rr.Code)

	var info infoResponse
	req.NoError(json.Unmarshal(rr.Body.Bytes(), &info))
	req.Equal(uint16(1), info.Version)
	req.Equal(testmodel.Locale, info.Locale)
	req.Equal([]string{"TO_LOWER", "HASHED_NGRAMS(buckets=1000, sizes=[1 2 3 4 5 6])", "NORMALIZE"}, info.Transformations)
	req.Len(info.Classes, len(testmodel.Topics))
	req.Equal(1000, info.Dimension)
}

func TestNoModelLoaded(t *testing.T) {
	s := New(nil, Options{})
	h := s.Handler()

	assertJSONError(t, serve(h, http.MethodPost, "/classify", "", "text"), http.StatusServiceUnavailable)
	assertJSONError(t, serve(h, http.MethodGet, "/info", "", ""), http.StatusServiceUnavailable)
	require.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/readyz", "", "").Code)
	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "", "").Code)
}

func TestReload(t *testing.T) {
	req := require.New(t)
	fail := false
	s, h := newTestServer(t, Options{
		Reload: func() (*textcat.Classifier, error) {
			if fail {
				return nil, errors.New("broken model")
			}
			return textcat.LoadJSON(testmodel.JSON())
		},
	})
	before := s.classifier.Load()

	rr := serve(h, http.MethodPost, "/reload", "", "")
	req.Equal(http.StatusOK, rr.Code)
	req.NotSame(before, s.classifier.Load())

	fail = true
	current := s.classifier.Load()
	assertJSONError(t, serve(h, http.MethodPost, "/reload", "", ""), http.StatusUnprocessableEntity)
	req.Same(current, s.classifier.Load())
	req.Equal(http.StatusOK, serve(h, http.MethodGet, "/readyz", "", "").Code)
}

func TestReloadNotConfigured(t *testing.T) {
	_, h := newTestServer(t, Options{})
	assertJSONError(t, serve(h, http.MethodPost, "/reload", "", ""), http.StatusNotImplemented)
}

func TestReadiness(t *testing.T) {
	s, h := newTestServer(t, Options{})
	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/readyz", "", "").Code)

	s.SetReady(false)
	require.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/readyz", "", "").Code)
}

func TestRequestID(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := serve(h, http.MethodGet, "/healthz", "", "")
	_, err := uuid.Parse(rr.Header().Get(requestIDHeader))
	require.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, id, rr.Header().Get(requestIDHeader))
}

func TestListenAndServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := New(newTestClassifier(t), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, ListenOptions{
			Addr:            addr,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.False(t, s.ready.Load())
}
