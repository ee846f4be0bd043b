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

package vector

import "context"

// Embedder maps text into the vector space used by the index. The same
// embedder must be used at write and query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Match is one nearest-neighbour result, best first.
type Match struct {
	ID      string
	Score   float32
	Payload string
}

// Index is a keyed nearest-neighbour store.
type Index interface {
	Upsert(ctx context.Context, id string, embedding []float32, payload string) error

	Search(ctx context.Context, embedding []float32, k int) ([]Match, error)
}
