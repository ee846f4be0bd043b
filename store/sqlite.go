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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/oneboxhq/onebox/email"
)

const queryLimit = 100

// SQLStore implements Store on a local SQLite database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens (or creates) the database at dbPath, enables WAL mode
// and applies any pending migrations.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type messageRow struct {
	ID          string    `db:"id"`
	UID         uint32    `db:"uid"`
	Account     string    `db:"account"`
	FromAddr    string    `db:"from_addr"`
	ToAddr      string    `db:"to_addr"`
	Subject     string    `db:"subject"`
	TextBody    string    `db:"text_body"`
	HTMLBody    string    `db:"html_body"`
	Date        time.Time `db:"date"`
	Folder      string    `db:"folder"`
	Category    string    `db:"category"`
	Flags       string    `db:"flags"`
	Size        uint32    `db:"size"`
	MessageID   string    `db:"message_id"`
	InReplyTo   string    `db:"in_reply_to"`
	Refs        string    `db:"refs"`
	Attachments string    `db:"attachments"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toRow(msg *email.Message) (*messageRow, error) {
	flags, err := json.Marshal(msg.Flags)
	if err != nil {
		return nil, err
	}
	refs, err := json.Marshal(msg.References)
	if err != nil {
		return nil, err
	}
	attachments, err := json.Marshal(msg.Attachments)
	if err != nil {
		return nil, err
	}

	return &messageRow{
		ID:          msg.ID,
		UID:         msg.UID,
		Account:     msg.Account,
		FromAddr:    msg.From,
		ToAddr:      msg.To,
		Subject:     msg.Subject,
		TextBody:    msg.TextBody,
		HTMLBody:    msg.HTMLBody,
		Date:        msg.Date,
		Folder:      msg.Folder,
		Category:    string(msg.Category),
		Flags:       string(flags),
		Size:        msg.Size,
		MessageID:   msg.MessageID,
		InReplyTo:   msg.InReplyTo,
		Refs:        string(refs),
		Attachments: string(attachments),
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   msg.UpdatedAt,
	}, nil
}

func fromRow(row *messageRow) (*email.Message, error) {
	msg := &email.Message{
		ID:        row.ID,
		UID:       row.UID,
		Account:   row.Account,
		From:      row.FromAddr,
		To:        row.ToAddr,
		Subject:   row.Subject,
		TextBody:  row.TextBody,
		HTMLBody:  row.HTMLBody,
		Date:      row.Date,
		Folder:    row.Folder,
		Category:  email.Category(row.Category),
		Size:      row.Size,
		MessageID: row.MessageID,
		InReplyTo: row.InReplyTo,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if err := json.Unmarshal([]byte(row.Flags), &msg.Flags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Refs), &msg.References); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Attachments), &msg.Attachments); err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *SQLStore) Put(ctx context.Context, msg *email.Message) error {
	row, err := toRow(msg)
	if err != nil {
		return fmt.Errorf("encoding message %s: %w", msg.ID, err)
	}

	_, err = s.db.NamedExecContext(ctx, `
INSERT INTO emails (
	id, uid, account, from_addr, to_addr, subject, text_body, html_body,
	date, folder, category, flags, size, message_id, in_reply_to, refs,
	attachments, created_at, updated_at
) VALUES (
	:id, :uid, :account, :from_addr, :to_addr, :subject, :text_body, :html_body,
	:date, :folder, :category, :flags, :size, :message_id, :in_reply_to, :refs,
	:attachments, :created_at, :updated_at
)
ON CONFLICT(id) DO UPDATE SET
	uid = excluded.uid,
	account = excluded.account,
	from_addr = excluded.from_addr,
	to_addr = excluded.to_addr,
	subject = excluded.subject,
	text_body = excluded.text_body,
	html_body = excluded.html_body,
	date = excluded.date,
	folder = excluded.folder,
	category = excluded.category,
	flags = excluded.flags,
	size = excluded.size,
	message_id = excluded.message_id,
	in_reply_to = excluded.in_reply_to,
	refs = excluded.refs,
	attachments = excluded.attachments,
	updated_at = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("upserting message %s: %w", msg.ID, err)
	}

	return nil
}

func (s *SQLStore) PatchCategory(ctx context.Context, id string, category email.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE emails SET category = ?, updated_at = ? WHERE id = ?",
		string(category), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("patching category of %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*email.Message, error) {
	var row messageRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}

	return fromRow(&row)
}

func (s *SQLStore) Query(ctx context.Context, text string, filters Filters) ([]*email.Message, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if text != "" {
		where = append(where, "(subject LIKE ? OR text_body LIKE ? OR from_addr LIKE ?)")
		pattern := "%" + text + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filters.Account != "" {
		where = append(where, "account = ?")
		args = append(args, filters.Account)
	}
	if filters.Folder != "" {
		where = append(where, "folder = ?")
		args = append(args, filters.Folder)
	}
	if filters.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filters.Category))
	}

	args = append(args, queryLimit)

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM emails WHERE "+strings.Join(where, " AND ")+
			" ORDER BY date DESC LIMIT ?", args...)
	if err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}

	msgs := make([]*email.Message, 0, len(rows))
	for i := range rows {
		msg, err := fromRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("decoding message %s: %w", rows[i].ID, err)
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}
