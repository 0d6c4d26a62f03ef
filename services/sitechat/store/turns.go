// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// anonBucket groups turns from clients with no resolved identity.
const anonBucket = "anon"

// TurnStore persists completed chat turns for the admin log viewer.
type TurnStore struct {
	db *badger.DB
}

func NewTurnStore(db *badger.DB) *TurnStore {
	return &TurnStore{db: db}
}

func turnBucket(userId string) string {
	if strings.TrimSpace(userId) == "" {
		return anonBucket
	}
	return userId
}

// turnKey orders turns chronologically within a user bucket. The
// nanosecond timestamp is zero-padded so lexicographic key order is
// time order; the uuid suffix breaks ties.
func turnKey(userId string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("turn/%s/%020d/%s", turnBucket(userId), at.UnixNano(), id))
}

// Log records one completed turn. The turn's Id and CreatedAt are
// filled in when unset.
func (s *TurnStore) Log(turn datatypes.ChatTurn) error {
	if turn.Id == "" {
		turn.Id = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode chat turn: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(turnKey(turn.UserId, turn.CreatedAt, turn.Id), payload)
	})
}

// ListByUser returns up to limit turns for one user, oldest first.
// A limit of zero or less means no limit.
func (s *TurnStore) ListByUser(userId string, limit int) ([]datatypes.ChatTurn, error) {
	return s.list([]byte("turn/"+turnBucket(userId)+"/"), limit)
}

// ListAll returns up to limit turns across every user, grouped by user
// bucket and chronological within each.
func (s *TurnStore) ListAll(limit int) ([]datatypes.ChatTurn, error) {
	return s.list([]byte("turn/"), limit)
}

func (s *TurnStore) list(prefix []byte, limit int) ([]datatypes.ChatTurn, error) {
	var turns []datatypes.ChatTurn
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(turns) >= limit {
				break
			}
			var turn datatypes.ChatTurn
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &turn)
			})
			if err != nil {
				return err
			}
			turns = append(turns, turn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}
