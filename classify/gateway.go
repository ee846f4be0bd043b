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

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/email"
)

var errNoCredentials = errors.New("no classifier credentials configured")

func NewGateway(cfg Config) *Gateway {
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = defaultBatchDelay
	}
	if cfg.ReplyTimeout == 0 {
		cfg.ReplyTimeout = defaultReplyTimeout
	}

	return &Gateway{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func truncateBody(msg *email.Message) string {
	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}
	if len(body) > promptBodyLimit {
		body = body[:promptBodyLimit]
	}
	return body
}

func categorizePrompt(msg *email.Message) string {
	labels := make([]string, 0, len(email.Categories))
	for _, c := range email.Categories {
		labels = append(labels, string(c))
	}

	var b strings.Builder
	b.WriteString("Classify the following email into exactly one of these categories: ")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString(".\nRespond with only the category name, nothing else.\n\n")
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	b.WriteString(truncateBody(msg))
	return b.String()
}

func (g *Gateway) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.cfg.APIKey == "" {
		return "", errNoCredentials
	}

	body, err := json.Marshal(chatRequest{
		Model:     g.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(g.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("classifier returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Categorize classifies one message. Any failure, including a response
// outside the fixed label set, degrades to the default category.
func (g *Gateway) Categorize(ctx context.Context, msg *email.Message) email.Category {
	raw, err := g.complete(ctx, categorizePrompt(msg), categorizeMaxTokens)
	if err != nil {
		log.WithError(err).WithField("id", msg.ID).Warn("classify_failed")
		return email.DefaultCategory
	}

	category, ok := email.ParseCategory(raw)
	if !ok {
		log.WithFields(log.Fields{
			"id":       msg.ID,
			"response": raw,
		}).Warn("classify_invalid_response")
		return email.DefaultCategory
	}

	return category
}

// CategorizeBatch classifies up to maxBatchSize messages sequentially
// with a fixed inter-call delay. The result always has one entry per
// input; failed items carry the default category.
func (g *Gateway) CategorizeBatch(ctx context.Context, msgs []*email.Message) []email.Category {
	categories := make([]email.Category, len(msgs))
	for i := range categories {
		categories[i] = email.DefaultCategory
	}

	n := len(msgs)
	if n > maxBatchSize {
		log.WithFields(log.Fields{
			"size":  len(msgs),
			"limit": maxBatchSize,
		}).Warn("classify_batch_truncated")
		n = maxBatchSize
	}

	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-time.After(g.cfg.BatchDelay):
			case <-ctx.Done():
				return categories
			}
		}

		categories[i] = g.Categorize(ctx, msgs[i])
	}

	return categories
}

func replyPrompt(msg *email.Message, training string, snippets []string) string {
	var b strings.Builder
	b.WriteString("Write a short, professional reply to the email below.\n\n")

	if training != "" {
		fmt.Fprintf(&b, "Context about the sender's product and goals:\n%s\n\n", training)
	}

	if len(snippets) > 0 {
		b.WriteString("Reference material from similar past conversations:\n")
		for _, s := range snippets {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	b.WriteString(truncateBody(msg))
	return b.String()
}

// SuggestReply produces reply text for a message, optionally enriched by
// nearest-neighbour reference snippets. It is best-effort: failures yield
// the fixed ReplyUnavailable string.
func (g *Gateway) SuggestReply(ctx context.Context, msg *email.Message, training string) string {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ReplyTimeout)
	defer cancel()

	var snippets []string
	if g.cfg.Index != nil && g.cfg.Embedder != nil {
		embedding, err := g.cfg.Embedder.Embed(ctx, truncateBody(msg))
		if err != nil {
			log.WithError(err).WithField("id", msg.ID).Warn("reply_embed_failed")
		} else {
			matches, err := g.cfg.Index.Search(ctx, embedding, neighbourCount)
			if err != nil {
				log.WithError(err).WithField("id", msg.ID).Warn("reply_neighbour_lookup_failed")
			} else {
				for _, m := range matches {
					if m.Payload != "" {
						snippets = append(snippets, m.Payload)
					}
				}
			}
		}
	}

	reply, err := g.complete(ctx, replyPrompt(msg, training, snippets), replyMaxTokens)
	if err != nil {
		log.WithError(err).WithField("id", msg.ID).Warn("reply_generation_failed")
		return ReplyUnavailable
	}

	return reply
}
