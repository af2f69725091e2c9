// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "karBuilder")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTempFail, err)
	}
	builder := &Builder{
		tempDir: temp,
		header:  header,
		names:   make(map[string]struct{}),
	}
	// Close should be used, this only catches forgotten builders.
	runtime.SetFinalizer(builder, func(builder *Builder) {
		os.RemoveAll(builder.tempDir)
	})
	return builder, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the temporary path given by the Builder
	TempName string

	// Size in uncompressed state
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder
// is the way to create an archive. Whenever Add is called, Builder
// stores the compressed file in a temporary dir, then finally
// bundles them together and writes them out with WriteTo.
type Builder struct {
	tempDir string
	header  Header

	mutex sync.Mutex
	files []tempFile
	names map[string]struct{}
}

// Add appends data to the builder with a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, data io.Reader) error {
	if name == "" {
		return fmt.Errorf("kar: empty file name")
	}

	b.mutex.Lock()
	if _, ok := b.names[name]; ok {
		b.mutex.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	b.names[name] = struct{}{}
	b.mutex.Unlock()

	f, err := ioutil.TempFile(b.tempDir, "entry")
	if err != nil {
		b.forget(name)
		return fmt.Errorf("%w: %s", ErrTempFail, err)
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, data)
	if err != nil {
		b.forget(name)
		return err
	}
	if err := writer.Close(); err != nil {
		b.forget(name)
		return err
	}
	info, err := f.Stat()
	if err != nil {
		b.forget(name)
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, tempFile{
		Name:       name,
		TempName:   f.Name(),
		Size:       written,
		Compressed: info.Size(),
	})
	return nil
}

func (b *Builder) forget(name string) {
	b.mutex.Lock()
	delete(b.names, name)
	b.mutex.Unlock()
}

// Len returns the number of files added so far.
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.files)
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use. Files are ordered by name.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	sort.Slice(b.files, func(i, j int) bool {
		return b.files[i].Name < b.files[j].Name
	})

	header := b.header
	header.Index = make([]IndexEntry, 0, len(b.files))
	var offset int64
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Offset:         offset,
			Size:           v.Size,
			CompressedSize: v.Compressed,
		})
		offset += v.Compressed
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, chunk := range [][]byte{magic[:], int64ToBinary(int64(len(rawHeader))), rawHeader} {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	for _, v := range b.files {
		n, err := copyFile(w, v.TempName)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close removes the temporary files, the Builder can not be used afterwards.
func (b *Builder) Close() error {
	runtime.SetFinalizer(b, nil)
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = nil
	return os.RemoveAll(b.tempDir)
}

func copyFile(w io.Writer, name string) (int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
