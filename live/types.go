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
	"time"

	"github.com/oneboxhq/onebox/email"
)

// Topic is the channel every processed message is announced on.
const Topic = "email-updates"

// Event is the lightweight summary published for every processed
// message, regardless of category or sink outcomes.
type Event struct {
	ID       string         `json:"id"`
	From     string         `json:"from"`
	Subject  string         `json:"subject"`
	Category email.Category `json:"category"`
	Date     time.Time      `json:"date"`
}

// Publisher fans an Event out to currently-connected subscribers,
// best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventFor builds the Event summarizing a processed message.
func EventFor(msg *email.Message) Event {
	return Event{
		ID:       msg.ID,
		From:     msg.From,
		Subject:  msg.Subject,
		Category: msg.Category,
		Date:     msg.Date,
	}
}
