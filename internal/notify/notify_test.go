package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

type fakeUsers map[int64]*domain.User

func (f fakeUsers) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func event(t *testing.T, typ domain.LogType, creatorID int64, ref string) []byte {
	t.Helper()

	body, err := json.Marshal(domain.ChangeEvent{
		Entry: domain.LogEntry{
			ID:        1,
			CreatorID: creatorID,
			Type:      typ,
			Ref:       ref,
			Message:   "assigned",
			Updated:   time.Date(2015, time.October, 1, 16, 0, 0, 0, time.UTC),
		},
		Description: "assignment updated (9:00AM): assigned",
	})
	require.NoError(t, err)
	return body
}

func newTestNotifier(sender *fakeSender) *Notifier {
	users := fakeUsers{
		7: {ID: 7, Username: "ann", FullName: "Ann Lee", Email: "ann@example.com", IsActive: true},
		8: {ID: 8, Username: "bo", Email: "bo@example.com", IsActive: false},
	}
	return NewNotifier(users, sender, "noreply@example.com", time.UTC)
}

func TestHandleSendsToAffectedStaff(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	result, err := n.Handle(context.Background(), event(t, domain.LogMeetUpdate, 1, "7,3,20151005,0900"))
	require.NoError(t, err)
	assert.Equal(t, ResultSent, result)

	require.Len(t, sender.sent, 1)
	rcpts, err := sender.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ann@example.com"}, rcpts)
	assert.Equal(t, []string{"Schedule update for Mon, Oct 5 2015"}, sender.sent[0].GetGenHeader(mail.HeaderSubject))
}

func TestHandleSkipsOwnChanges(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	result, err := n.Handle(context.Background(), event(t, domain.LogOfferUpdate, 7, "7,20151005"))
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)
	assert.Empty(t, sender.sent)
}

func TestHandleSkipsEventsWithoutRecipient(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	for _, typ := range []domain.LogType{domain.LogNeedUpdate, domain.LogTemplateOpClassroom, domain.LogMeetCascadeDeleteOffer} {
		ref := "3,20151005"
		if typ == domain.LogMeetCascadeDeleteOffer {
			ref = "7,3,20151005,0900"
		}
		result, err := n.Handle(context.Background(), event(t, typ, 1, ref))
		require.NoError(t, err)
		assert.Equal(t, ResultSkipped, result, typ.String())
	}
	assert.Empty(t, sender.sent)
}

func TestHandleSkipsInactiveUsers(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender)

	result, err := n.Handle(context.Background(), event(t, domain.LogMeetCascadeDeleteNeed, 1, "8,3,20151005,0900"))
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)
}

func TestHandleMalformed(t *testing.T) {
	n := newTestNotifier(&fakeSender{})

	_, err := n.Handle(context.Background(), []byte("{"))
	assert.ErrorIs(t, err, ErrMalformed)

	// a ref that names no one has no recipient
	result, err := n.Handle(context.Background(), event(t, domain.LogMeetUpdate, 1, "7,3,bad,0900"))
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)
}

func TestHandleSendFailureIsRetryable(t *testing.T) {
	boom := errors.New("smtp down")
	n := newTestNotifier(&fakeSender{err: boom})

	result, err := n.Handle(context.Background(), event(t, domain.LogMeetUpdate, 1, "7,3,20151005,0900"))
	assert.Equal(t, ResultFailed, result)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMalformed)
}
