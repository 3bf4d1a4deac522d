package notification

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/types/notification"
)

type fakeSender struct {
	sent []*messaging.Message
	fail map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	if f.fail[m.Token] {
		return "", errors.New("unregistered")
	}
	return "projects/x/messages/1", nil
}

func TestSendPushPerPlatform(t *testing.T) {
	fake := &fakeSender{}
	svc := &FCMService{client: fake}

	tokens := []notification.DeviceToken{
		{Token: "a", Platform: "android"},
		{Token: "i", Platform: "ios"},
		{Token: "w", Platform: "web"},
	}
	err := svc.SendPush(context.Background(), tokens, "7 day streak!", "keep going", map[string]any{"milestone": 7})
	require.NoError(t, err)
	require.Len(t, fake.sent, 3)

	assert.NotNil(t, fake.sent[0].Android)
	assert.NotNil(t, fake.sent[1].APNS)
	assert.NotNil(t, fake.sent[2].Webpush)
	assert.Equal(t, "7", fake.sent[0].Data["milestone"])
	assert.Equal(t, "7 day streak!", fake.sent[1].Notification.Title)
}

func TestSendPushFailsOnlyWhenAllFail(t *testing.T) {
	tokens := []notification.DeviceToken{{Token: "a"}, {Token: "b"}}

	partial := &FCMService{client: &fakeSender{fail: map[string]bool{"a": true}}}
	assert.NoError(t, partial.SendPush(context.Background(), tokens, "t", "b", nil))

	all := &FCMService{client: &fakeSender{fail: map[string]bool{"a": true, "b": true}}}
	assert.Error(t, all.SendPush(context.Background(), tokens, "t", "b", nil))

	assert.NoError(t, all.SendPush(context.Background(), nil, "t", "b", nil))
}
