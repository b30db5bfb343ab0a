// Package store persists contact messages in a single JSON file.
//
// The file is an append-biased, capacity-bounded log: newest entries first,
// truncated at the cap. Every read-modify-write cycle holds an in-process
// mutex, so concurrent submissions cannot overwrite each other's entries.
// The single-process deployment assumption still holds - there is no
// cross-process file lock.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"storefront-proxy/internal/model"
)

// MaxMessages caps the stored collection; the oldest entries past the cap
// are silently dropped.
const MaxMessages = 100

// Store is a JSON-file-backed contact-message collection.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	lastID int64
}

// New creates a Store writing to the given file path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Append assigns an id and creation date to msg, prepends it to the stored
// collection, truncates to MaxMessages, and rewrites the file. Returns the
// stored message.
func (s *Store) Append(msg model.ContactMessage) (model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID()
	msg.Date = time.Now().UTC().Format(time.RFC3339)

	messages := s.load()
	messages = append([]model.ContactMessage{msg}, messages...)
	if len(messages) > MaxMessages {
		messages = messages[:MaxMessages]
	}

	if err := s.write(messages); err != nil {
		return model.ContactMessage{}, err
	}
	return msg, nil
}

// List returns the stored collection, newest first. A missing file is an
// empty collection, not an error.
func (s *Store) List() ([]model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.ContactMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading message store: %w", err)
	}

	var messages []model.ContactMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parsing message store: %w", err)
	}
	if messages == nil {
		messages = []model.ContactMessage{}
	}
	return messages, nil
}

// Delete removes the message whose id matches the given string form.
// Returns model.ErrNotFound when no entry matches (or the file is absent),
// so callers can report not-found distinctly from found-and-deleted.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return model.ErrNotFound
	}

	messages := s.load()
	kept := messages[:0]
	for _, m := range messages {
		if strconv.FormatInt(m.ID, 10) != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(messages) {
		return model.ErrNotFound
	}
	return s.write(kept)
}

// nextID returns the current millisecond timestamp, bumped past the last
// issued id so ids stay unique even within a single millisecond.
// Callers must hold s.mu.
func (s *Store) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// load reads the collection for a mutation, tolerating a missing file as
// empty and resetting a corrupt or non-array file to empty with a logged
// error. A bad file must not make the contact form start failing.
// Callers must hold s.mu.
func (s *Store) load() []model.ContactMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("reading message store failed, resetting",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var messages []model.ContactMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		s.logger.Error("message store corrupt, resetting",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return messages
}

// write rewrites the whole file pretty-printed, matching the layout admins
// expect when inspecting the store by hand.
func (s *Store) write(messages []model.ContactMessage) error {
	if messages == nil {
		messages = []model.ContactMessage{}
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding message store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing message store: %w", err)
	}
	return nil
}
