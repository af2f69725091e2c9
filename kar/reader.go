// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	m := make([]byte, MagicLength)
	if err := readFull(r, m, 0); err != nil {
		return nil, err
	} else if !bytes.Equal(m, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if err := readFull(r, headerSizeBytes, MagicLength); err != nil {
		return nil, err
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil {
		return nil, err
	} else if headerSize <= 0 || headerSize > maxHeaderSize {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if err := readFull(r, headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileFormat, err)
	}

	index := make(map[string]int, len(header.Index))
	for idx, e := range header.Index {
		if e.Offset < 0 || e.CompressedSize < 0 || e.Size < 0 {
			return nil, ErrFileFormat
		}
		index[e.Name] = idx
	}

	return &Archive{
		reader:     r,
		header:     header,
		index:      index,
		dataOffset: MagicLength + HeaderSizeNumberLength + headerSize,
	}, nil
}

// readFull reads exactly len(p) bytes at off, a short read means a broken archive.
func readFull(r io.ReaderAt, p []byte, off int64) error {
	num, err := r.ReadAt(p, off)
	if num == len(p) {
		return nil
	}
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrFileFormat
	}
	return err
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	index      map[string]int
	dataOffset int64
}

// Header returns the archive header including the file index.
func (a *Archive) Header() Header {
	return a.header
}

// Names returns the names of all files in the order they are stored.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// Stat returns the index entry of a file.
func (a *Archive) Stat(name string) (IndexEntry, error) {
	idx, ok := a.index[name]
	if !ok {
		return IndexEntry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.header.Index[idx], nil
}

// maxReadAllHint bounds the buffer ReadAll preallocates from the
// recorded size, the buffer still grows past it for larger files.
const maxReadAllHint = 16 << 20

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	hint := r.Size()
	if hint > maxReadAllHint {
		hint = maxReadAllHint
	}
	buf := bytes.NewBuffer(make([]byte, 0, hint))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		archive: a,
		entry:   entry,
		lz:      lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
// Readers of one Archive can be used concurrently.
type Reader struct {
	archive *Archive
	entry   IndexEntry
	lz      *lz4.Reader
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.lz.Read(p)
}

// Size returns the decompressed size of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Name returns the name the file is stored under.
func (r *Reader) Name() string {
	return r.entry.Name
}

var _ io.Reader = (*Reader)(nil)

