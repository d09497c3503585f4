package client

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core/access"
)

func TestPaths(t *testing.T) {
	client := NewWithRouter(nil)

	collection := client.Collection("rooms")
	assert.Equal(t, "/rooms", collection.CollectionPath())

	item := collection.Item(7)
	assert.Equal(t, "/rooms/7", item.Path())
	assert.Equal(t, "/rooms/7/photos/0", item.Path("photos", "0"))

	assert.Equal(t, "/settings", client.Collection("settings").Singleton().Path())

	collection = client.Collection("/rooms/").WithFilter("status", "available").WithPage(2, 10)
	assert.Equal(t, "/rooms?status=available&page=2&pageSize=10", collection.CollectionPath())

	// parameters do not leak into the original collection
	base := client.Collection("rooms")
	_ = base.WithParameter("a", "b")
	assert.Equal(t, "/rooms", base.CollectionPath())

	assert.Equal(t, "permission_ids", relationProperty("permissions"))
}

func TestEnvelope(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		session := access.SessionFromContext(r.Context())
		if session == nil {
			w.Write([]byte(`{"data":{"user_id":0}}`))
			return
		}
		w.Write([]byte(`{"data":{"user_id":` + r.Header.Get("X-Test") + `}}`))
	})
	router.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"unset"}`))
	})
	router.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"room 9 not found"}`))
	})

	client := NewWithRouter(router)

	var result struct {
		UserID int64 `json:"user_id"`
	}
	_, err := client.WithUser(42).WithHeader("X-Test", "42").RawGet("/ok", &result)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.UserID)

	var version map[string]string
	_, err = client.RawGet("/plain", &version)
	require.NoError(t, err)
	assert.Equal(t, "unset", version["version"])

	status, err := client.RawGet("/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "room 9 not found", e.Message)
}
