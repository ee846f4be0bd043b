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
	"errors"

	"github.com/oneboxhq/onebox/email"
)

var ErrNotFound = errors.New("message not found")

// Filters restricts a Query to a subset of the index. Zero values match
// everything.
type Filters struct {
	Account  string
	Folder   string
	Category email.Category
}

// Store is the search index the pipeline persists into. Writes are keyed
// by the message's deterministic identifier; Put is a full-document
// upsert and PatchCategory a partial last-write-wins update.
type Store interface {
	Put(ctx context.Context, msg *email.Message) error

	PatchCategory(ctx context.Context, id string, category email.Category) error

	Get(ctx context.Context, id string) (*email.Message, error)

	Query(ctx context.Context, text string, filters Filters) ([]*email.Message, error)

	Close() error
}
