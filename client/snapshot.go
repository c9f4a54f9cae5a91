package client

import (
	"encoding/json"
	"os"
	"sync"

	"golang.org/x/exp/slices"
)

// the fallback snapshot: one cached copy of the most recent successful feed
// result set. single fixed slot, whole value replace, last write wins.

type SnapshotStore interface {
	Save(exams []*ExamRecord) error
	// Load returns nil, nil when no snapshot exists yet
	Load() ([]*ExamRecord, error)
}

// MemorySnapshotStore holds the slot in memory. default for embedded use
// and tests.
type MemorySnapshotStore struct {
	stateLock sync.Mutex
	exams     []*ExamRecord
	saved     bool
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (self *MemorySnapshotStore) Save(exams []*ExamRecord) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.exams = slices.Clone(exams)
	self.saved = true
	return nil
}

func (self *MemorySnapshotStore) Load() ([]*ExamRecord, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	if !self.saved {
		return nil, nil
	}
	return slices.Clone(self.exams), nil
}

// FileSnapshotStore persists the slot as one json blob at a fixed path.
type FileSnapshotStore struct {
	path string

	stateLock sync.Mutex
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{
		path: path,
	}
}

func (self *FileSnapshotStore) Save(exams []*ExamRecord) error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	if exams == nil {
		exams = []*ExamRecord{}
	}
	snapshotBytes, err := json.Marshal(exams)
	if err != nil {
		return err
	}
	return os.WriteFile(self.path, snapshotBytes, 0600)
}

func (self *FileSnapshotStore) Load() ([]*ExamRecord, error) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	snapshotBytes, err := os.ReadFile(self.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	exams := []*ExamRecord{}
	if err := json.Unmarshal(snapshotBytes, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}
