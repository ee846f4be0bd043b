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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleMessage = "From: Alice <alice@example.com>\r\n" +
	"To: Bob <bob@example.com>\r\n" +
	"Subject: Meeting Request\r\n" +
	"Date: Wed, 11 May 2016 14:31:59 +0000\r\n" +
	"Message-ID: <01@example.com>\r\n" +
	"In-Reply-To: <00@example.com>\r\n" +
	"References: <aa@example.com> <00@example.com>\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Can we schedule a meeting next week?\r\n"

func TestNormalizeSimple(t *testing.T) {
	attrs := Attributes{
		UID:          7,
		SeqNum:       1,
		Flags:        []string{"\\Seen"},
		Size:         uint32(len(simpleMessage)),
		InternalDate: time.Date(2016, 5, 11, 14, 32, 0, 0, time.UTC),
	}

	msg := Normalize("a@x.com", "INBOX", attrs, []byte(simpleMessage))
	require.NotNil(t, msg)

	assert.Equal(t, "a@x.com:7", msg.ID)
	assert.Equal(t, uint32(7), msg.UID)
	assert.Equal(t, "a@x.com", msg.Account)
	assert.Equal(t, "INBOX", msg.Folder)
	assert.Contains(t, msg.From, "alice@example.com")
	assert.Contains(t, msg.To, "bob@example.com")
	assert.Equal(t, "Meeting Request", msg.Subject)
	assert.Contains(t, msg.TextBody, "schedule a meeting")
	assert.Empty(t, msg.HTMLBody)
	assert.Equal(t, "<01@example.com>", msg.MessageID)
	assert.Equal(t, "<00@example.com>", msg.InReplyTo)
	assert.Equal(t, []string{"<aa@example.com>", "<00@example.com>"}, msg.References)
	assert.Equal(t, Category(""), msg.Category)
	assert.Equal(t, 2016, msg.Date.Year())
}

func TestNormalizeMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: alice@example.com",
		"To: bob@example.com",
		"Subject: Report",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=frontier",
		"",
		"--frontier",
		"Content-Type: text/plain",
		"",
		"See attached.",
		"--frontier",
		"Content-Type: text/html",
		"",
		"<p>See attached.</p>",
		"--frontier",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=report.pdf",
		"",
		"%PDF-1.4 fake",
		"--frontier--",
		"",
	}, "\r\n")

	msg := Normalize("a@x.com", "INBOX", Attributes{UID: 9}, []byte(raw))
	assert.Equal(t, "See attached.", strings.TrimSpace(msg.TextBody))
	assert.Equal(t, "<p>See attached.</p>", strings.TrimSpace(msg.HTMLBody))
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "report.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Greater(t, msg.Attachments[0].Size, int64(0))
}

func TestNormalizeGarbage(t *testing.T) {
	attrs := Attributes{
		UID:          3,
		Size:         12,
		InternalDate: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	msg := Normalize("a@x.com", "INBOX", attrs, []byte("\x00\x01\x02 not mail"))
	require.NotNil(t, msg)
	assert.Equal(t, "a@x.com:3", msg.ID)
	assert.Empty(t, msg.TextBody)
	assert.Empty(t, msg.HTMLBody)
	assert.Empty(t, msg.Subject)
	assert.Equal(t, attrs.InternalDate, msg.Date)
}

func TestMessageIDDeterministic(t *testing.T) {
	a := MessageID("a@x.com", 42)
	b := MessageID("a@x.com", 42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, MessageID("b@x.com", 42))
	assert.NotEqual(t, a, MessageID("a@x.com", 43))

	// Normalizing the same payload twice yields the same identifier.
	m1 := Normalize("a@x.com", "INBOX", Attributes{UID: 42}, []byte(simpleMessage))
	m2 := Normalize("a@x.com", "INBOX", Attributes{UID: 42}, []byte(simpleMessage))
	assert.Equal(t, m1.ID, m2.ID)
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(string(c))
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}

	for _, s := range []string{"", "interested", "Maybe", "NOT INTERESTED", "Interested "} {
		_, ok := ParseCategory(s)
		assert.False(t, ok, s)
	}
}
