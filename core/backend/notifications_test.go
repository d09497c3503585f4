package backend_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rentdesk/core"
	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/backend"
)

func seedNotifications(t *testing.T, s *testService) {
	s.seed(t, "notifications",
		map[string]interface{}{"id": 1, "title": "Hóa đơn quá hạn", "created_at": "2024-06-10T09:00:00.000Z"},
		map[string]interface{}{"id": 2, "title": "Hợp đồng sắp hết hạn", "created_at": "2024-06-14T09:00:00.000Z"},
		map[string]interface{}{"id": 3, "title": "Bảo trì", "created_at": "2024-06-12T09:00:00.000Z"},
	)
	s.seed(t, "notification_recipients",
		map[string]interface{}{"id": 1, "notification_id": 1, "user_id": 7, "is_read": true, "read_at": "2024-06-11T00:00:00.000Z"},
		map[string]interface{}{"id": 2, "notification_id": 2, "user_id": 7, "is_read": false},
		map[string]interface{}{"id": 3, "notification_id": 3, "user_id": 7},
		map[string]interface{}{"id": 4, "notification_id": 3, "user_id": 8, "is_read": false},
		map[string]interface{}{"id": 5, "notification_id": 99, "user_id": 7},
	)
}

func TestNotifications(t *testing.T) {
	s := newTestService(t)
	seedNotifications(t, s)
	user := s.client.WithUser(7)

	var list []map[string]interface{}
	_, err := user.RawGet("/notifications", &list)
	require.NoError(t, err)
	require.Len(t, list, 3, "recipient rows of missing notifications are skipped")
	assert.Equal(t, float64(2), list[0]["id"], "newest first")
	assert.Equal(t, float64(3), list[1]["id"])
	assert.Equal(t, float64(1), list[2]["id"])
	assert.Equal(t, float64(2), list[0]["recipient_id"])
	assert.Equal(t, false, list[1]["is_read"])
	assert.Equal(t, true, list[2]["is_read"])
	assert.Equal(t, "2024-06-11T00:00:00.000Z", list[2]["read_at"])

	_, err = user.RawGet("/notifications?unread=true", &list)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = user.RawGet("/notifications?limit=1&offset=1", &list)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, float64(3), list[0]["id"])

	var count map[string]int
	_, err = user.RawGet("/notifications/unread-count", &count)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"count": 3}, count, "counts recipient rows, including the orphaned one")

	var marked map[string]interface{}
	_, err = user.RawPatch("/notifications/3/read", nil, &marked)
	require.NoError(t, err)
	assert.Equal(t, true, marked["is_read"])
	assert.Equal(t, "2024-06-15T08:30:00.000Z", marked["read_at"])
	assert.Equal(t, float64(3), marked["id"], "the recipient row is returned")

	status, err := user.RawPatch("/notifications/4/read", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	var updated map[string]int
	_, err = user.RawPatch("/notifications/mark-all-read", nil, &updated)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"updated": 2}, updated, "notification 2 and the orphaned row")

	_, err = user.RawGet("/notifications/unread-count", &count)
	require.NoError(t, err)
	assert.Equal(t, 0, count["count"])

	// other recipients are untouched
	_, err = s.client.WithUser(8).RawGet("/notifications/unread-count", &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count["count"])
}

func TestNotificationsRequireSession(t *testing.T) {
	s := newTestService(t)
	seedNotifications(t, s)

	for _, r := range []struct {
		verb core.Verb
		path string
	}{
		{core.VerbRead, "/notifications"},
		{core.VerbRead, "/notifications/unread-count"},
		{core.VerbUpdate, "/notifications/1/read"},
		{core.VerbUpdate, "/notifications/mark-all-read"},
	} {
		_, err := s.backend.Do(context.Background(), backend.Request{Verb: r.verb, Path: r.path})
		assert.ErrorIs(t, err, backend.ErrUnauthorized, r.path)
	}

	status, err := s.client.RawGet("/notifications", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	result, err := s.backend.Do(context.Background(), backend.Request{
		Verb:    core.VerbRead,
		Path:    "/notifications/unread-count",
		Session: &access.Session{UserID: 8},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"count": 1}, result)
}
