package mapping

import (
	"errors"
	"fmt"
	"io"

	"github.com/petrarca/magicbytes/pkg/filetype"
)

// MaxSequenceLength returns the length of the longest registered magic byte
// sequence. Reading this many bytes from the start of a file is enough for Detect.
func (m *Mapping) MaxSequenceLength() int {
	longest := 0
	for _, ft := range m.fileTypes {
		if n := ft.MaxSequenceLength(); n > longest {
			longest = n
		}
	}
	return longest
}

// Detect returns the first file type, in insertion order, with a stored
// sequence that is a prefix of header. Unlike FindByMagicByteSequence, header
// may be longer than the signature. It returns nil, nil when nothing matches.
func (m *Mapping) Detect(header []byte) (*filetype.FileType, error) {
	if len(header) == 0 {
		return nil, filetype.NewArgumentEmptyError("header")
	}

	for _, ft := range m.fileTypes {
		if ft.MatchLength(header) > 0 {
			return ft, nil
		}
	}
	return nil, nil
}

// DetectReader reads up to MaxSequenceLength bytes from r and calls Detect.
// An empty reader yields an ArgumentEmptyError for "header".
func (m *Mapping) DetectReader(r io.Reader) (*filetype.FileType, error) {
	header, err := ReadHeader(r, m.MaxSequenceLength())
	if err != nil {
		return nil, err
	}
	return m.Detect(header)
}

// ReadHeader reads at most size bytes from r. Short reads are not an error.
func ReadHeader(r io.Reader, size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return buf[:n], nil
}
