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
	"net/http"
	"time"

	"github.com/oneboxhq/onebox/vector"
)

const (
	// maxBatchSize bounds a single CategorizeBatch call.
	maxBatchSize = 50

	// defaultBatchDelay is the fixed inter-call pause within a batch.
	defaultBatchDelay = 100 * time.Millisecond

	// categorizeMaxTokens caps the classifier's response; a label never
	// needs more.
	categorizeMaxTokens = 50

	replyMaxTokens      = 512
	defaultReplyTimeout = 15 * time.Second

	// promptBodyLimit is how much body text is offered to the classifier.
	promptBodyLimit = 1000

	// neighbourCount is how many reference snippets are folded into a
	// reply prompt.
	neighbourCount = 3
)

// ReplyUnavailable is returned verbatim when reply generation fails; the
// call is best-effort and user-facing.
const ReplyUnavailable = "Unable to generate a reply suggestion right now."

type Config struct {
	// BaseURL of an OpenAI-compatible chat completions endpoint.
	BaseURL string
	APIKey  string
	Model   string

	// BatchDelay overrides the inter-call pause within a batch.
	BatchDelay time.Duration

	// ReplyTimeout bounds a single reply-generation call.
	ReplyTimeout time.Duration

	// Index and Embedder, when both set, enrich reply prompts with
	// nearest-neighbour reference snippets.
	Index    vector.Index
	Embedder vector.Embedder
}

// Gateway wraps the external classifier/generator. Classification never
// returns an error: every failure degrades to the default category.
type Gateway struct {
	cfg    Config
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
