package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("c1")
	assert.Equal(t, StateConnecting, s.GetState())
	assert.False(t, s.IsAuthenticated())

	require.True(t, s.Authenticate(4, "dana"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, int64(4), s.GetUserID())
	assert.Equal(t, "dana", s.GetUsername())

	assert.True(t, s.Close())
	assert.False(t, s.Close(), "second close is a no-op")
	assert.True(t, s.IsClosed())
	assert.False(t, s.Authenticate(5, "eve"), "closed sessions stay closed")
	assert.Equal(t, int64(4), s.GetUserID())
}

func TestSessionCloseFromConnecting(t *testing.T) {
	s := NewSession("c2")
	assert.True(t, s.Close())
	assert.Equal(t, "closed", s.GetState().String())
}

func TestSessionCloseIfConnecting(t *testing.T) {
	idle := NewSession("c3")
	assert.True(t, idle.CloseIfConnecting())
	assert.False(t, idle.Authenticate(1, "ann"))

	authed := NewSession("c4")
	require.True(t, authed.Authenticate(2, "ben"))
	assert.False(t, authed.CloseIfConnecting())
	assert.True(t, authed.IsAuthenticated())

	closed := NewSession("c5")
	closed.Close()
	assert.False(t, closed.CloseIfConnecting())
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("")
	assert.True(t, ok)
	assert.Equal(t, PlatformIOS, p)

	p, ok = ParsePlatform("android")
	assert.True(t, ok)
	assert.Equal(t, PlatformAndroid, p)

	_, ok = ParsePlatform("windows")
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Identity{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada", (&Identity{Username: "ada", FirstName: "Ada"}).DisplayName())
	assert.Equal(t, "ada", (&Identity{Username: "ada"}).DisplayName())
}

func TestNewMessageFrameShape(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	frame := NewNewMessage(&ChatEvent{ID: 9, SenderID: 1, RecipientID: 2, Message: "hi", CreatedAt: created})

	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_message","data":{"id":9,"sender_id":1,"recipient_id":2,"message":"hi","image_url":null,"created_at":"2024-05-01T12:00:00Z"}}`, string(raw))
}

func TestAuthSuccessFrameUsesUserIdKey(t *testing.T) {
	raw, err := json.Marshal(NewAuthSuccess(42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"auth_success","userId":42}`, string(raw))
}

func TestChatEventValidate(t *testing.T) {
	assert.NoError(t, (&ChatEvent{ID: 1, SenderID: 1, RecipientID: 2}).Validate())
	assert.ErrorIs(t, (&ChatEvent{ID: 1, SenderID: 1}).Validate(), ErrInvalidChatEvent)
	var nilEvent *ChatEvent
	assert.ErrorIs(t, nilEvent.Validate(), ErrInvalidChatEvent)
}
