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

package email

import (
	"fmt"
	"time"
)

// Category is one of the fixed classification labels applied to a Message.
type Category string

const (
	CategoryInterested    Category = "Interested"
	CategoryMeetingBooked Category = "Meeting Booked"
	CategoryNotInterested Category = "Not Interested"
	CategorySpam          Category = "Spam"
	CategoryOutOfOffice   Category = "Out of Office"
)

// DefaultCategory is applied whenever the classifier is unavailable or
// returns something outside the fixed set.
const DefaultCategory = CategoryNotInterested

// Categories lists every valid label, in prompt order.
var Categories = []Category{
	CategoryInterested,
	CategoryMeetingBooked,
	CategoryNotInterested,
	CategorySpam,
	CategoryOutOfOffice,
}

// ParseCategory reports whether s is exactly one of the fixed labels.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Attachment describes an attachment. Content is not retained.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Attributes are the server-supplied metadata accompanying a raw payload.
type Attributes struct {
	UID          uint32
	SeqNum       uint32
	Flags        []string
	Size         uint32
	InternalDate time.Time
}

// Message is the canonical record of one mail item.
type Message struct {
	ID          string       `json:"id"`
	UID         uint32       `json:"uid"`
	Account     string       `json:"account"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	TextBody    string       `json:"text_body"`
	HTMLBody    string       `json:"html_body"`
	Date        time.Time    `json:"date"`
	Folder      string       `json:"folder"`
	Category    Category     `json:"category,omitempty"`
	Flags       []string     `json:"flags"`
	Size        uint32       `json:"size"`
	MessageID   string       `json:"message_id"`
	InReplyTo   string       `json:"in_reply_to"`
	References  []string     `json:"references"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MessageID derives the stable identifier for a message. It is a pure
// function of the owning account and the server-assigned UID, so
// reprocessing the same message always yields the same identifier.
func MessageID(account string, uid uint32) string {
	return fmt.Sprintf("%s:%d", account, uid)
}
