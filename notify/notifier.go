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

	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/email"
	"github.com/oneboxhq/onebox/live"
)

// Notifier routes categorized messages to the configured sinks and
// publishes a live-update event for every message. Both sinks are nil-able;
// a missing sink is simply skipped.
type Notifier struct {
	chat      Sink
	webhook   Sink
	publisher live.Publisher
}

func NewNotifier(chat, webhook Sink, publisher live.Publisher) *Notifier {
	return &Notifier{chat: chat, webhook: webhook, publisher: publisher}
}

func (n *Notifier) publish(ctx context.Context, msg *email.Message) {
	if n.publisher == nil {
		return
	}

	if err := n.publisher.Publish(ctx, live.EventFor(msg)); err != nil {
		log.WithError(err).WithField("id", msg.ID).Warn("live_publish_failed")
	}
}

// Dispatch notifies on one categorized message. Only Interested messages
// reach the sinks; each sink fails independently. The live-update event
// is published unconditionally.
func (n *Notifier) Dispatch(ctx context.Context, msg *email.Message) {
	if msg.Category == email.CategoryInterested {
		if n.chat != nil && !n.chat.Send(ctx, msg) {
			log.WithField("id", msg.ID).Warn("chat_sink_failed")
		}
		if n.webhook != nil && !n.webhook.Send(ctx, msg) {
			log.WithField("id", msg.ID).Warn("webhook_sink_failed")
		}
	}

	n.publish(ctx, msg)
}

// DispatchBatch notifies on N messages with a single outbound call per
// sink for the Interested subset, then publishes a live-update event per
// message.
func (n *Notifier) DispatchBatch(ctx context.Context, msgs []*email.Message) {
	var interested []*email.Message
	for _, msg := range msgs {
		if msg.Category == email.CategoryInterested {
			interested = append(interested, msg)
		}
	}

	if len(interested) > 0 {
		if n.chat != nil && !n.chat.SendBatch(ctx, interested) {
			log.WithField("count", len(interested)).Warn("chat_sink_batch_failed")
		}
		if n.webhook != nil && !n.webhook.SendBatch(ctx, interested) {
			log.WithField("count", len(interested)).Warn("webhook_sink_batch_failed")
		}
	}

	for _, msg := range msgs {
		n.publish(ctx, msg)
	}
}
