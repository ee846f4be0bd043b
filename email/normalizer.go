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
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	log "github.com/sirupsen/logrus"
)

// Normalize turns a raw RFC822 payload plus server attributes into a
// canonical Message with the category left unset. It never fails: an
// unparseable payload yields a Message with empty textual fields so that
// one bad message cannot stall an account's sync.
func Normalize(account, folder string, attrs Attributes, raw []byte) *Message {
	now := time.Now().UTC()
	msg := &Message{
		ID:        MessageID(account, attrs.UID),
		UID:       attrs.UID,
		Account:   account,
		Folder:    folder,
		Date:      attrs.InternalDate,
		Flags:     attrs.Flags,
		Size:      attrs.Size,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		log.WithError(err).WithFields(log.Fields{
			"account": account,
			"uid":     attrs.UID,
		}).Warn("normalize_unparseable_payload")
		return msg
	}
	if mr == nil {
		return msg
	}

	fillHeader(msg, &mr.Header)
	fillParts(msg, mr)

	return msg
}

func fillHeader(msg *Message, h *mail.Header) {
	msg.From = addressField(h, "From")
	msg.To = addressField(h, "To")

	if subject, err := h.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = h.Get("Subject")
	}

	if date, err := h.Date(); err == nil && !date.IsZero() {
		msg.Date = date
	}

	msg.MessageID = strings.TrimSpace(h.Get("Message-Id"))
	msg.InReplyTo = strings.TrimSpace(h.Get("In-Reply-To"))
	if refs := strings.Fields(h.Get("References")); len(refs) > 0 {
		msg.References = refs
	}
}

func addressField(h *mail.Header, field string) string {
	list, err := h.AddressList(field)
	if err != nil || len(list) == 0 {
		return strings.TrimSpace(h.Get(field))
	}

	parts := make([]string, 0, len(list))
	for _, addr := range list {
		parts = append(parts, addr.String())
	}
	return strings.Join(parts, ", ")
}

func fillParts(msg *Message, mr *mail.Reader) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return
		} else if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			log.WithError(err).WithField("id", msg.ID).Warn("normalize_part_failed")
			return
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			ctype, _, err := header.ContentType()
			if err != nil {
				ctype = "text/plain"
			}

			body, err := io.ReadAll(part.Body)
			if err != nil {
				log.WithError(err).WithField("id", msg.ID).Warn("normalize_body_read_failed")
				continue
			}

			switch {
			case strings.EqualFold(ctype, "text/plain") && msg.TextBody == "":
				msg.TextBody = string(body)
			case strings.EqualFold(ctype, "text/html") && msg.HTMLBody == "":
				msg.HTMLBody = string(body)
			}
		case *mail.AttachmentHeader:
			filename, err := header.Filename()
			if err != nil {
				filename = ""
			}

			ctype, _, err := header.ContentType()
			if err != nil {
				ctype = "application/octet-stream"
			}

			// Attachment content is counted but not retained.
			n, err := io.Copy(io.Discard, part.Body)
			if err != nil {
				log.WithError(err).WithField("id", msg.ID).Warn("normalize_attachment_read_failed")
			}

			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    filename,
				ContentType: ctype,
				Size:        n,
			})
		}
	}
}
