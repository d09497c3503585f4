package backend

import (
	"context"
	"sort"

	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/resource"
)

// collections used by notifications
const (
	collectionNotifications = "notifications"
	collectionRecipients    = "notification_recipients"
)

// actor returns the user id of the request's session
func (c *call) actor() (int64, error) {
	userID, ok := c.Session.Actor()
	if !ok {
		return 0, unauthorized("%s requires an authenticated user", c.path.String())
	}
	return userID, nil
}

// recipientRows returns the recipient rows of userID
func (b *Backend) recipientRows(ctx context.Context, userID int64) ([]resource.Record, error) {
	rows, err := b.collection(ctx, collectionRecipients)
	if err != nil {
		return nil, err
	}
	result := []resource.Record{}
	for _, row := range rows {
		if id, ok := row.Int("user_id"); ok && id == userID {
			result = append(result, row)
		}
	}
	return result, nil
}

func isRead(row resource.Record) bool {
	read, _ := row.Bool("is_read")
	return read
}

// notificationList is GET /notifications. It lists the notifications of the
// actor, newest first, each with its read state.
func (b *Backend) notificationList(ctx context.Context, c *call) (interface{}, error) {
	userID, err := c.actor()
	if err != nil {
		return nil, err
	}
	var rows, notifications []resource.Record
	g := newGroup(ctx)
	g.Go(func(ctx context.Context) (err error) {
		rows, err = b.recipientRows(ctx, userID)
		return
	})
	g.Go(func(ctx context.Context) (err error) {
		notifications, err = b.collection(ctx, collectionNotifications)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := resource.Index(notifications)
	result := []resource.Record{}
	for _, row := range rows {
		notificationID, ok := row.Int("notification_id")
		if !ok {
			continue
		}
		n, ok := byID[notificationID]
		if !ok {
			continue
		}
		entry := resource.NewRecord(n.Key, n.Object())
		entry.ID, entry.HasID = n.ID, n.HasID
		entry.Fields["recipient_id"] = row.ID
		entry.Fields["is_read"] = isRead(row)
		readAt, _ := row.Get("read_at")
		entry.Fields["read_at"] = readAt
		result = append(result, entry)
	}
	sortNewestFirst(result, "created_at")

	if unread, ok := c.params()["unread"]; ok && (unread == "true" || unread == true) {
		filtered := []resource.Record{}
		for _, r := range result {
			if read, _ := r.Bool("is_read"); !read {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}
	page, err := resource.ParsePage(c.query, c.Params)
	if err != nil {
		return nil, invalidParameter("%s", err.Error())
	}
	return page.Apply(result), nil
}

// notificationUnreadCount is GET /notifications/unread-count
func (b *Backend) notificationUnreadCount(ctx context.Context, c *call) (interface{}, error) {
	userID, err := c.actor()
	if err != nil {
		return nil, err
	}
	rows, err := b.recipientRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, row := range rows {
		if !isRead(row) {
			count++
		}
	}
	return map[string]int{"count": count}, nil
}

// markRead marks a recipient row as read
func (b *Backend) markRead(ctx context.Context, row resource.Record, now string) (resource.Record, error) {
	updated := resource.NewRecord(row.Key, row.Object())
	updated.ID, updated.HasID = row.ID, row.HasID
	updated.Fields["is_read"] = true
	updated.Fields["read_at"] = now
	if err := b.write(ctx, collectionRecipients, updated); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("Error 4740: cannot mark notification read", row.Key)
		return updated, err
	}
	return updated, nil
}

// notificationMarkRead is PATCH /notifications/{id}/read. The id is the id of
// the notification, not of the recipient row.
func (b *Backend) notificationMarkRead(ctx context.Context, c *call) (interface{}, error) {
	userID, err := c.actor()
	if err != nil {
		return nil, err
	}
	rows, err := b.recipientRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if id, ok := row.Int("notification_id"); ok && id == c.id {
			return b.markRead(ctx, row, b.timestamp())
		}
	}
	return nil, notFound("notification %d not found for user %d", c.id, userID)
}

// notificationMarkAllRead is PATCH /notifications/mark-all-read
func (b *Backend) notificationMarkAllRead(ctx context.Context, c *call) (interface{}, error) {
	userID, err := c.actor()
	if err != nil {
		return nil, err
	}
	rows, err := b.recipientRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := b.timestamp()
	updated := 0
	for _, row := range rows {
		if isRead(row) {
			continue
		}
		if _, err := b.markRead(ctx, row, now); err != nil {
			return nil, err
		}
		updated++
	}
	return map[string]int{"updated": updated}, nil
}

// sortNewestFirst sorts records by a timestamp property, descending. Records
// without a valid timestamp go last, ties are broken by id, descending.
func sortNewestFirst(records []resource.Record, properties ...string) {
	type entry struct {
		unix  int64
		valid bool
	}
	keys := make(map[string]entry, len(records))
	keyOf := func(r resource.Record) entry {
		for _, p := range properties {
			if v, ok := r.Get(p); ok {
				if t, ok := resource.ParseTime(v); ok {
					return entry{unix: t.UnixNano(), valid: true}
				}
			}
		}
		return entry{}
	}
	for _, r := range records {
		keys[r.Key] = keyOf(r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := keys[records[i].Key], keys[records[j].Key]
		if a.valid != b.valid {
			return a.valid
		}
		if a.unix != b.unix {
			return a.unix > b.unix
		}
		return records[i].ID > records[j].ID
	})
}
