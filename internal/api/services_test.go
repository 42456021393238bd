package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cardoctor/server/internal/store"
)

func sampleService() map[string]any {
	return map[string]any{
		"service_id":  "01",
		"title":       "Full Car Repair",
		"img":         "https://i.ibb.co/car-repair.jpg",
		"price":       200.0,
		"description": "Engine, brakes and electrics.",
	}
}

func TestCreateAndGetServiceProjected(t *testing.T) {
	env := newTestEnv(t, Options{ServiceProjection: true})

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/services", sampleService()))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := insertedID(t, rec)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/services/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	want := sampleService()
	delete(want, "description")
	want["_id"] = id
	assert.Equal(t, want, decode[map[string]any](t, rec))
}

func TestGetServiceFullDocument(t *testing.T) {
	env := newTestEnv(t, Options{ServiceProjection: false})

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/services", sampleService()))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := insertedID(t, rec)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/services/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	want := sampleService()
	want["_id"] = id
	assert.Equal(t, want, decode[map[string]any](t, rec))
}

func TestGetServiceUnknownIDIsNull(t *testing.T) {
	env := newTestEnv(t, Options{ServiceProjection: true})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/services/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestGetServiceMalformedID(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/services/not-an-id", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	_, parseErr := store.ParseID("not-an-id")
	assert.Equal(t, parseErr.Error(), rec.Body.String())
}

func TestListServices(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	for _, title := range []string{"Oil Change", "Battery Charge"} {
		rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/services", map[string]any{"title": title}))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]map[string]any](t, rec)
	require.Len(t, docs, 2)
	assert.Equal(t, "Oil Change", docs[0]["title"])
	assert.Equal(t, "Battery Charge", docs[1]["title"])
}

func TestListServicesStoreFailure(t *testing.T) {
	st := store.NewMemory()
	st.Services = &failingCollection{Collection: st.Services, err: errors.New("server selection timeout")}
	env := newTestEnv(t, Options{Store: st})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server selection timeout", rec.Body.String())

	rec = env.do(t, jsonRequest(t, http.MethodPost, "/api/services", sampleService()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server selection timeout", rec.Body.String())
}

func TestCreateServiceBodies(t *testing.T) {
	env := newTestEnv(t, Options{BodyLimit: 64})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader(`{"title":`))
		req.Header.Set("Content-Type", "application/json")
		rec := env.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not an object", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader(`"title"`))
		req.Header.Set("Content-Type", "application/json")
		rec := env.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/services", map[string]any{"title": strings.Repeat("x", 128)})
		rec := env.do(t, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("not json stores empty document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/services", strings.NewReader("title=Oil"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := env.do(t, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		id := insertedID(t, rec)

		oid, err := store.ParseID(id)
		require.NoError(t, err)
		doc, err := env.store.Services.FindOne(req.Context(), store.ByID(oid))
		require.NoError(t, err)
		assert.Equal(t, store.Document{"_id": oid}, doc)
	})
}
