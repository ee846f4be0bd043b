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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/email"
)

// WebhookSink delivers enveloped message payloads to an outbound
// webhook. Delivery is best-effort; no retries at this layer.
type WebhookSink struct {
	url         string
	client      *http.Client
	batchClient *http.Client
}

func NewWebhookSink(url string, singleTimeout, batchTimeout time.Duration) *WebhookSink {
	if singleTimeout == 0 {
		singleTimeout = defaultWebhookTimeout
	}
	if batchTimeout == 0 {
		batchTimeout = defaultWebhookBatchTimeout
	}

	return &WebhookSink{
		url:         url,
		client:      &http.Client{Timeout: singleTimeout},
		batchClient: &http.Client{Timeout: batchTimeout},
	}
}

func metadata() envelopeMetadata {
	return envelopeMetadata{
		Source:      envelopeSource,
		Version:     envelopeVersion,
		ProcessedAt: time.Now().UTC(),
		DeliveryID:  uuid.NewString(),
	}
}

func (s *WebhookSink) post(ctx context.Context, client *http.Client, payload interface{}) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("webhook_sink_encode_failed")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("webhook_sink_request_failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Warn("webhook_sink_send_failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("webhook_sink_rejected")
		return false
	}

	return true
}

func (s *WebhookSink) Send(ctx context.Context, msg *email.Message) bool {
	ok := s.post(ctx, s.client, webhookEnvelope{
		Event:     EventInterested,
		Timestamp: time.Now().UTC(),
		Data:      msg,
		Metadata:  metadata(),
	})
	if ok {
		log.WithField("id", msg.ID).Info("webhook_sent")
	}
	return ok
}

func (s *WebhookSink) SendBatch(ctx context.Context, msgs []*email.Message) bool {
	if len(msgs) == 0 {
		return true
	}

	ok := s.post(ctx, s.batchClient, webhookBatchEnvelope{
		Event:     EventBatchInterested,
		Timestamp: time.Now().UTC(),
		Count:     len(msgs),
		Data:      msgs,
		Metadata:  metadata(),
	})
	if ok {
		log.WithField("count", len(msgs)).Info("webhook_batch_sent")
	}
	return ok
}
