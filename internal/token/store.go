// Package token implements the single-use token store backing the webhook
// pipeline. A token binds one buyer email and one plan variant to exactly one
// future form submission. The store is the authoritative duplicate guard:
// consumption is atomic and durably persisted before it is reported back.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/plan"
)

var (
	// ErrNotFound means the token was never issued (or the store was lost).
	ErrNotFound = errors.New("token not found")
	// ErrConsumed means the token was already used by a completed delivery.
	ErrConsumed = errors.New("token already consumed")
	// ErrPlanMismatch means the token was issued for a different plan variant.
	ErrPlanMismatch = errors.New("token plan mismatch")
)

// Record is the stored state of one issued token.
type Record struct {
	Consumed bool         `json:"consumed"`
	Email    string       `json:"email"`
	Plan     plan.Variant `json:"plan"`
}

// Store is a mutex-serialized, file-backed map of token id to Record.
// Every mutation rewrites the whole file before the call returns, so a
// crash between mutations can never resurrect a consumed token.
type Store struct {
	mu     sync.Mutex
	path   string
	tokens map[string]Record
	logger *zap.Logger
}

// fileEntry is the on-disk shape: a [id, record] pair inside a JSON array.
type fileEntry struct {
	ID     string
	Record Record
}

func (e fileEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Record})
}

func (e *fileEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Record)
}

// Open loads the store from path. A missing file yields an empty store; a
// corrupt file is logged and discarded (availability over durability).
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:   path,
		tokens: make(map[string]Record),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		logger.Warn("token store unreadable, starting empty",
			zap.String("path", path), zap.Error(err))
		return s, nil
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("token store corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		return s, nil
	}
	for _, e := range entries {
		s.tokens[e.ID] = e.Record
	}
	logger.Info("token store loaded",
		zap.String("path", path), zap.Int("tokens", len(entries)))
	return s, nil
}

// Create mints a fresh unguessable token for the given plan and recipient,
// persists it, and returns its id. The write to disk completes before the
// token is handed out.
func (s *Store) Create(v plan.Variant, email string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	id := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The 128-bit space makes collisions negligible, but a fresh id is free.
	for {
		if _, exists := s.tokens[id]; !exists {
			break
		}
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		id = hex.EncodeToString(buf)
	}

	s.tokens[id] = Record{Consumed: false, Email: email, Plan: v}
	if err := s.flushLocked(); err != nil {
		delete(s.tokens, id)
		return "", fmt.Errorf("persist token: %w", err)
	}
	return id, nil
}

// Lookup returns the record for id, if any. Pure read.
func (s *Store) Lookup(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[id]
	return rec, ok
}

// Validate checks the three-way security boundary for a form submission:
// the token exists, has not been consumed, and was issued for the variant
// of the endpoint that received it.
func (s *Store) Validate(id string, v plan.Variant) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.Consumed {
		return Record{}, ErrConsumed
	}
	if rec.Plan != v {
		return Record{}, ErrPlanMismatch
	}
	return rec, nil
}

// Consume marks id consumed if and only if it exists and is unconsumed,
// persisting the transition before returning. Of any number of concurrent
// callers racing on the same token, exactly one succeeds.
func (s *Store) Consume(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Consumed {
		return ErrConsumed
	}
	rec.Consumed = true
	s.tokens[id] = rec
	if err := s.flushLocked(); err != nil {
		rec.Consumed = false
		s.tokens[id] = rec
		return fmt.Errorf("persist consume: %w", err)
	}
	return nil
}

// Len returns the number of stored tokens.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// flushLocked rewrites the full collection via temp file + rename so readers
// never observe a partial write. Callers must hold s.mu.
func (s *Store) flushLocked() error {
	entries := make([]fileEntry, 0, len(s.tokens))
	for id, rec := range s.tokens {
		entries = append(entries, fileEntry{ID: id, Record: rec})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode token store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write token store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync token store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close token store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace token store: %w", err)
	}
	return nil
}
