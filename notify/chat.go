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
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/email"
)

// ChatSink posts to a Slack-style incoming webhook.
type ChatSink struct {
	webhookURL string
	client     *http.Client
}

func NewChatSink(webhookURL string, timeout time.Duration) *ChatSink {
	if timeout == 0 {
		timeout = defaultChatTimeout
	}

	return &ChatSink{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

type chatField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type chatAttachment struct {
	Color  string      `json:"color"`
	Fields []chatField `json:"fields"`
}

type chatPayload struct {
	Text        string           `json:"text"`
	Attachments []chatAttachment `json:"attachments,omitempty"`
}

func chatPayloadFor(msg *email.Message) chatPayload {
	return chatPayload{
		Text: fmt.Sprintf("New interested lead: %s", msg.Subject),
		Attachments: []chatAttachment{{
			Color: "good",
			Fields: []chatField{
				{Title: "From", Value: msg.From, Short: true},
				{Title: "To", Value: msg.To, Short: true},
				{Title: "Subject", Value: msg.Subject, Short: false},
				{Title: "Date", Value: msg.Date.Format(time.RFC1123Z), Short: true},
				{Title: "Account", Value: msg.Account, Short: true},
				{Title: "Category", Value: string(msg.Category), Short: true},
			},
		}},
	}
}

func (s *ChatSink) post(ctx context.Context, payload interface{}) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("chat_sink_encode_failed")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("chat_sink_request_failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("chat_sink_send_failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("chat_sink_rejected")
		return false
	}

	return true
}

func (s *ChatSink) Send(ctx context.Context, msg *email.Message) bool {
	ok := s.post(ctx, chatPayloadFor(msg))
	if ok {
		log.WithField("id", msg.ID).Info("chat_notification_sent")
	}
	return ok
}

func (s *ChatSink) SendBatch(ctx context.Context, msgs []*email.Message) bool {
	if len(msgs) == 0 {
		return true
	}

	attachments := make([]chatAttachment, 0, len(msgs))
	for _, msg := range msgs {
		attachments = append(attachments, chatPayloadFor(msg).Attachments...)
	}

	return s.post(ctx, chatPayload{
		Text:        fmt.Sprintf("%d new interested leads", len(msgs)),
		Attachments: attachments,
	})
}
