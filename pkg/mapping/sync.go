package mapping

import (
	"fmt"
	"io"
	"sync"

	"github.com/petrarca/magicbytes/pkg/filetype"
)

// Synchronized guards a Mapping with a read-write lock.
// Lookups share the read lock; registration takes the write lock.
type Synchronized struct {
	mu sync.RWMutex
	m  *Mapping
}

// NewSynchronized wraps m. The caller must not use m directly afterwards.
func NewSynchronized(m *Mapping) *Synchronized {
	return &Synchronized{m: m}
}

// FileTypes calls Mapping.FileTypes under the read lock
func (s *Synchronized) FileTypes() []*filetype.FileType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.FileTypes()
}

// Len calls Mapping.Len under the read lock
func (s *Synchronized) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Len()
}

// FindByMimeType calls Mapping.FindByMimeType under the read lock
func (s *Synchronized) FindByMimeType(mimeType string) (*filetype.FileType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.FindByMimeType(mimeType)
}

// FindByExtension calls Mapping.FindByExtension under the read lock
func (s *Synchronized) FindByExtension(extension string) (*filetype.FileType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.FindByExtension(extension)
}

// FindByMagicByteSequence calls Mapping.FindByMagicByteSequence under the read lock
func (s *Synchronized) FindByMagicByteSequence(sequence []byte) (*filetype.FileType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.FindByMagicByteSequence(sequence)
}

// Detect calls Mapping.Detect under the read lock
func (s *Synchronized) Detect(header []byte) (*filetype.FileType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Detect(header)
}

// MaxSequenceLength calls Mapping.MaxSequenceLength under the read lock
func (s *Synchronized) MaxSequenceLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.MaxSequenceLength()
}

// DetectReader reads the header outside the lock, then detects under it
func (s *Synchronized) DetectReader(r io.Reader) (*filetype.FileType, error) {
	header, err := ReadHeader(r, s.MaxSequenceLength())
	if err != nil {
		return nil, err
	}
	return s.Detect(header)
}

// Register calls Mapping.Register under the write lock
func (s *Synchronized) Register(fileType *filetype.FileType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Register(fileType)
}

// RegisterAll calls Mapping.RegisterAll under the write lock
func (s *Synchronized) RegisterAll(fileTypes []*filetype.FileType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.RegisterAll(fileTypes)
}

// RegisterFrom collects from source outside the lock, then appends like
// RegisterAll under the write lock. A collector error leaves the registry unchanged.
func (s *Synchronized) RegisterFrom(source Collector) error {
	if source == nil {
		return nil
	}
	fileTypes, err := source.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect file types: %w", err)
	}
	s.RegisterAll(fileTypes)
	return nil
}
