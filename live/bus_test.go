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

package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneboxhq/onebox/email"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()

	a, cancelA := bus.Subscribe(4)
	defer cancelA()
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	event := Event{
		ID:       "a@x.com:1",
		From:     "alice@example.com",
		Subject:  "Hello",
		Category: email.CategoryInterested,
		Date:     time.Now().UTC(),
	}
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, event, <-a)
	assert.Equal(t, event, <-b)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after the only subscriber left is a no-op.
	require.NoError(t, bus.Publish(context.Background(), Event{ID: "a@x.com:2"}))
}

func TestBusDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()

	slow, cancel := bus.Subscribe(1)
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), Event{ID: "a@x.com:1"}))
	require.NoError(t, bus.Publish(context.Background(), Event{ID: "a@x.com:2"}))

	// Only the buffered event is delivered; the overflow was dropped.
	assert.Equal(t, "a@x.com:1", (<-slow).ID)
	select {
	case e := <-slow:
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestEventFor(t *testing.T) {
	msg := &email.Message{
		ID:       "a@x.com:9",
		From:     "alice@example.com",
		Subject:  "Quarterly report",
		Category: email.CategorySpam,
		Date:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	event := EventFor(msg)
	assert.Equal(t, msg.ID, event.ID)
	assert.Equal(t, msg.From, event.From)
	assert.Equal(t, msg.Subject, event.Subject)
	assert.Equal(t, msg.Category, event.Category)
	assert.Equal(t, msg.Date, event.Date)
}
