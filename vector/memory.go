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

import (
	"context"
	"sort"
	"sync"
)

type memoryDoc struct {
	embedding []float32
	payload   string
}

// MemoryIndex is an in-process Index, used in tests and redis-less runs.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: map[string]memoryDoc{}}
}

func (m *MemoryIndex) Upsert(_ context.Context, id string, embedding []float32, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	m.docs[id] = memoryDoc{embedding: vec, payload: payload}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, embedding []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.docs))
	for id, doc := range m.docs {
		matches = append(matches, Match{
			ID:      id,
			Score:   cosine(embedding, doc.embedding),
			Payload: doc.payload,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}
