/*
 * Onebox - Copyright (C) 2025 Onebox Authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 2, and only
 * version 2 as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 59 Temple Place, Suite 330, Boston, MA  02111-1307  USA
 */

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneboxhq/onebox/email"
	"github.com/oneboxhq/onebox/live"
)

func interestedMessage() *email.Message {
	return &email.Message{
		ID:       "a@x.com:1",
		Account:  "a@x.com",
		From:     "alice@example.com",
		To:       "me@x.com",
		Subject:  "Meeting Request",
		Category: email.CategoryInterested,
		Date:     time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

type fakeSink struct {
	sent      []*email.Message
	batches   [][]*email.Message
	succeed   bool
	onInvoked func()
}

func (f *fakeSink) Send(_ context.Context, msg *email.Message) bool {
	f.sent = append(f.sent, msg)
	if f.onInvoked != nil {
		f.onInvoked()
	}
	return f.succeed
}

func (f *fakeSink) SendBatch(_ context.Context, msgs []*email.Message) bool {
	f.batches = append(f.batches, msgs)
	return f.succeed
}

func TestDispatchInterested(t *testing.T) {
	chat := &fakeSink{succeed: true}
	webhook := &fakeSink{succeed: true}
	bus := live.NewBus()
	events, cancel := bus.Subscribe(1)
	defer cancel()

	n := NewNotifier(chat, webhook, bus)
	n.Dispatch(context.Background(), interestedMessage())

	assert.Len(t, chat.sent, 1)
	assert.Len(t, webhook.sent, 1)
	assert.Equal(t, "a@x.com:1", (<-events).ID)
}

func TestDispatchOtherCategories(t *testing.T) {
	for _, category := range []email.Category{
		email.CategoryMeetingBooked,
		email.CategoryNotInterested,
		email.CategorySpam,
		email.CategoryOutOfOffice,
	} {
		chat := &fakeSink{succeed: true}
		webhook := &fakeSink{succeed: true}
		bus := live.NewBus()
		events, cancel := bus.Subscribe(1)

		msg := interestedMessage()
		msg.Category = category

		NewNotifier(chat, webhook, bus).Dispatch(context.Background(), msg)

		assert.Empty(t, chat.sent, string(category))
		assert.Empty(t, webhook.sent, string(category))

		// The live publish still happens.
		event := <-events
		assert.Equal(t, category, event.Category)
		cancel()
	}
}

func TestDispatchSinkFailuresAreIndependent(t *testing.T) {
	chat := &fakeSink{succeed: false}
	webhook := &fakeSink{succeed: true}

	NewNotifier(chat, webhook, nil).Dispatch(context.Background(), interestedMessage())
	assert.Len(t, chat.sent, 1)
	assert.Len(t, webhook.sent, 1, "chat failure must not prevent the webhook call")

	chat2 := &fakeSink{succeed: true}
	webhook2 := &fakeSink{succeed: false}
	NewNotifier(chat2, webhook2, nil).Dispatch(context.Background(), interestedMessage())
	assert.Len(t, chat2.sent, 1)
	assert.Len(t, webhook2.sent, 1)
}

func TestDispatchBatch(t *testing.T) {
	chat := &fakeSink{succeed: true}
	webhook := &fakeSink{succeed: true}
	bus := live.NewBus()
	events, cancel := bus.Subscribe(4)
	defer cancel()

	spam := interestedMessage()
	spam.ID = "a@x.com:2"
	spam.Category = email.CategorySpam

	NewNotifier(chat, webhook, bus).DispatchBatch(context.Background(),
		[]*email.Message{interestedMessage(), spam})

	require.Len(t, webhook.batches, 1)
	assert.Len(t, webhook.batches[0], 1, "only the interested subset is delivered")
	require.Len(t, chat.batches, 1)

	// Live events for every message, interested or not.
	assert.Equal(t, "a@x.com:1", (<-events).ID)
	assert.Equal(t, "a@x.com:2", (<-events).ID)
}

func TestWebhookEnvelope(t *testing.T) {
	var got webhookEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, 0, 0)
	msg := interestedMessage()
	assert.True(t, sink.Send(context.Background(), msg))

	assert.Equal(t, EventInterested, got.Event)
	assert.False(t, got.Timestamp.IsZero())
	require.NotNil(t, got.Data)
	assert.Equal(t, msg.ID, got.Data.ID)
	assert.Equal(t, envelopeSource, got.Metadata.Source)
	assert.Equal(t, envelopeVersion, got.Metadata.Version)
	assert.False(t, got.Metadata.ProcessedAt.IsZero())
	assert.NotEmpty(t, got.Metadata.DeliveryID)
}

func TestWebhookBatchEnvelope(t *testing.T) {
	var got webhookBatchEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, 0, 0)
	msgs := []*email.Message{interestedMessage(), interestedMessage()}
	assert.True(t, sink.SendBatch(context.Background(), msgs))

	assert.Equal(t, EventBatchInterested, got.Event)
	assert.Equal(t, 2, got.Count)
	assert.Len(t, got.Data, 2)
}

func TestWebhookSinkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, 0, 0)
	assert.False(t, sink.Send(context.Background(), interestedMessage()))
}

func TestChatSinkPayload(t *testing.T) {
	var got chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	sink := NewChatSink(srv.URL, 0)
	assert.True(t, sink.Send(context.Background(), interestedMessage()))

	require.Len(t, got.Attachments, 1)
	fields := map[string]string{}
	for _, f := range got.Attachments[0].Fields {
		fields[f.Title] = f.Value
	}
	assert.Equal(t, "alice@example.com", fields["From"])
	assert.Equal(t, "me@x.com", fields["To"])
	assert.Equal(t, "Meeting Request", fields["Subject"])
	assert.Equal(t, "a@x.com", fields["Account"])
	assert.Equal(t, string(email.CategoryInterested), fields["Category"])
	assert.NotEmpty(t, fields["Date"])
}
