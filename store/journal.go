package store

import (
	"context"
	"sync"

	"github.com/minaorangina/kingdoms/protocol"
)

// JournalReader reads back the commands a game accepted
type JournalReader interface {
	Entries(ctx context.Context, gameID string) ([]protocol.JournalEntry, error)
}

// MemoryJournal keeps journals for the life of the process
type MemoryJournal struct {
	mu      sync.RWMutex
	entries map[string][]protocol.JournalEntry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: map[string][]protocol.JournalEntry{}}
}

func (j *MemoryJournal) Append(_ context.Context, entry protocol.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range j.entries[entry.GameID] {
		if e.Seq == entry.Seq {
			return duplicateEntry(entry)
		}
	}
	j.entries[entry.GameID] = append(j.entries[entry.GameID], entry)
	return nil
}

func (j *MemoryJournal) Entries(_ context.Context, gameID string) ([]protocol.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]protocol.JournalEntry{}, j.entries[gameID]...), nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
