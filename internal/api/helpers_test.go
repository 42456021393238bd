package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cardoctor/server/internal/logging"
	"cardoctor/server/internal/store"
	"cardoctor/server/internal/token"
)

const testSecret = "test-secret"

type testEnv struct {
	store   *store.Store
	tokens  *token.Service
	handler http.Handler
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Tokens == nil {
		opts.Tokens = token.New([]byte(testSecret), time.Hour)
	}
	opts.Logger = logging.Discard()
	return &testEnv{
		store:   opts.Store,
		tokens:  opts.Tokens,
		handler: New(opts).Routes(),
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withDeadline bounds requests that are expected to be left unanswered.
func withDeadline(t *testing.T, req *http.Request, d time.Duration) *http.Request {
	t.Helper()
	ctx, cancel := context.WithTimeout(req.Context(), d)
	t.Cleanup(cancel)
	return req.WithContext(ctx)
}

func (e *testEnv) bearer(t *testing.T, email string) string {
	t.Helper()
	signed, err := e.tokens.Issue(map[string]any{"email": email})
	require.NoError(t, err)
	return signed
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&v), rec.Body.String())
	return v
}

func insertedID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	ack := decode[map[string]any](t, rec)
	require.Equal(t, true, ack["acknowledged"])
	id, ok := ack["insertedId"].(string)
	require.True(t, ok, "insertedId is a hex string: %v", ack["insertedId"])
	return id
}

// hookCollection runs afterFindOne between a lookup and whatever the
// handler does next, to force the interleavings the handlers are exposed to.
type hookCollection struct {
	store.Collection
	afterFindOne func()
}

func (h *hookCollection) FindOne(ctx context.Context, filter store.Document, projection ...string) (store.Document, error) {
	doc, err := h.Collection.FindOne(ctx, filter, projection...)
	if h.afterFindOne != nil {
		h.afterFindOne()
	}
	return doc, err
}

type failingCollection struct {
	store.Collection
	err error
}

func (f *failingCollection) Find(context.Context, store.Document) ([]store.Document, error) {
	return nil, f.err
}

func (f *failingCollection) InsertOne(context.Context, store.Document) (*store.InsertResult, error) {
	return nil, f.err
}
