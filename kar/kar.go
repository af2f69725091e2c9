// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar reads and writes kar archives, the asset bundles textures
// can be loaded from. Every entry is lz4 compressed on its own and the
// index sits in front of the data, so a memory mapped archive serves any
// entry without scanning or unpacking the rest. An Archive can be read
// from concurrently.
//
// The layout is the magic "KAR\x00", the header length as a fixed size
// little endian number, the gob encoded Header and finally the compressed
// files. IndexEntry offsets count from the end of the Header.
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a kar archive")
	ErrNotFound   = errors.New("file not found in kar archive")
	ErrDuplicate  = errors.New("file already added to kar archive")
	ErrTempFail   = errors.New("temporary folder or file operation failed")
)

// Sizes of the fixed length fields in front of the Header.
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16

	// maxHeaderSize guards against allocating absurd amounts
	// of memory when reading a corrupted size field.
	maxHeaderSize = 64 << 20
)

var magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// IndexEntry locates one file inside the archive.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header describes the archive and indexes its files by name order.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	bts := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(bts, uint64(num))
	return bts
}

func binaryToint64(bts []byte) (int64, error) {
	if len(bts) < 8 {
		return 0, ErrFileFormat
	}
	return int64(binary.LittleEndian.Uint64(bts)), nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return nil
}
