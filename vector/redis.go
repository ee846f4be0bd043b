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
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "onebox:vector:"

// RedisIndex keeps documents as JSON values under onebox:vector:<id> and
// ranks candidates by cosine similarity in-process. Fine for the small
// reference-snippet corpora this pipeline maintains.
type RedisIndex struct {
	rdb *redis.Client
}

func NewRedisIndex(rdb *redis.Client) *RedisIndex {
	return &RedisIndex{rdb: rdb}
}

type redisDoc struct {
	Embedding []float32 `json:"embedding"`
	Payload   string    `json:"payload"`
}

func (r *RedisIndex) Upsert(ctx context.Context, id string, embedding []float32, payload string) error {
	doc, err := json.Marshal(redisDoc{Embedding: embedding, Payload: payload})
	if err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, redisKeyPrefix+id, doc, 0).Err(); err != nil {
		return fmt.Errorf("upserting vector %s: %w", id, err)
	}

	return nil
}

func (r *RedisIndex) Search(ctx context.Context, embedding []float32, k int) ([]Match, error) {
	var matches []Match
	var cursor uint64

	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning vectors: %w", err)
		}

		for _, key := range keys {
			raw, err := r.rdb.Get(ctx, key).Bytes()
			if err == redis.Nil {
				continue
			} else if err != nil {
				return nil, fmt.Errorf("reading vector %s: %w", key, err)
			}

			var doc redisDoc
			if err := json.Unmarshal(raw, &doc); err != nil {
				continue
			}

			matches = append(matches, Match{
				ID:      key[len(redisKeyPrefix):],
				Score:   cosine(embedding, doc.Embedding),
				Payload: doc.Payload,
			})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}
