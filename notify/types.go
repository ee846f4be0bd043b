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
	"time"

	"github.com/oneboxhq/onebox/email"
)

const (
	// EventInterested is the webhook event name for a single message.
	EventInterested = "email.interested"

	// EventBatchInterested is the webhook event name for a batch.
	EventBatchInterested = "email.batch.interested"

	envelopeSource  = "onebox"
	envelopeVersion = "1.0"

	defaultChatTimeout         = 5 * time.Second
	defaultWebhookTimeout      = 10 * time.Second
	defaultWebhookBatchTimeout = 15 * time.Second
)

// Sink is an external notification target. Send reports success; it
// never returns an error because sink failures are logged, not
// propagated.
type Sink interface {
	Send(ctx context.Context, msg *email.Message) bool

	SendBatch(ctx context.Context, msgs []*email.Message) bool
}

// envelopeMetadata rides along on every webhook delivery.
type envelopeMetadata struct {
	Source      string    `json:"source"`
	Version     string    `json:"version"`
	ProcessedAt time.Time `json:"processedAt"`
	DeliveryID  string    `json:"deliveryId"`
}

type webhookEnvelope struct {
	Event     string           `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Data      *email.Message   `json:"data"`
	Metadata  envelopeMetadata `json:"metadata"`
}

type webhookBatchEnvelope struct {
	Event     string           `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Count     int              `json:"count"`
	Data      []*email.Message `json:"data"`
	Metadata  envelopeMetadata `json:"metadata"`
}
