// Package pack turns a classified source tree into a distributable archive,
// either an indexed .lpk bundle or a self-extracting launcher.
package pack

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// bundleEntry records where a packed file lives inside the archive.
type bundleEntry struct {
	offset  int32
	size    int32
	decSize int32
}

type bundleDir struct {
	dirs  map[string]*bundleDir
	files map[string]*bundleEntry
}

func newBundleDir() *bundleDir {
	return &bundleDir{
		dirs:  map[string]*bundleDir{},
		files: map[string]*bundleEntry{},
	}
}

// BundleWriter writes .lpk bundles: brotli-compressed file entries followed
// by a central index.
type BundleWriter struct {
	hdl      *os.File
	root     *bundleDir
	dirStack []*bundleDir
	current  *bundleDir
	buffer   []byte
}

// NewBundleWriter creates the bundle file and prepares it for writing.
func NewBundleWriter(filename string) (*BundleWriter, error) {
	hdl, err := os.Create(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to create %s", filename)
	}

	root := newBundleDir()

	// skip the header which consists of 4 chars and 3 int32s
	_, err = hdl.Seek(int64(4+12), io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, err
	}

	return &BundleWriter{
		hdl:      hdl,
		root:     root,
		dirStack: []*bundleDir{root},
		current:  root,
		buffer:   make([]byte, 4096),
	}, nil
}

// OpenDirectory creates a directory entry; everything written until the
// matching CloseDirectory call lands inside it.
func (w *BundleWriter) OpenDirectory(dirname string) {
	dir := newBundleDir()
	w.current.dirs[dirname] = dir
	w.dirStack = append(w.dirStack, dir)
	w.current = dir
}

// CloseDirectory closes the directory that was last opened.
func (w *BundleWriter) CloseDirectory() error {
	stackLen := len(w.dirStack)
	if stackLen < 2 {
		return eris.New("No directory left on stack")
	}

	w.dirStack = w.dirStack[:stackLen-1]
	w.current = w.dirStack[stackLen-2]
	return nil
}

// WriteFile compresses the reader's contents into a new file entry in the
// current archive directory.
func (w *BundleWriter) WriteFile(filename string, reader io.Reader) error {
	offset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	brw := brotli.NewWriterLevel(w.hdl, brotli.BestCompression)
	decSize, err := io.CopyBuffer(brw, reader, w.buffer)
	if err != nil {
		return err
	}

	err = brw.Close()
	if err != nil {
		return err
	}

	newPos, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	w.current.files[filename] = &bundleEntry{
		offset:  int32(offset),
		size:    int32(newPos - offset),
		decSize: int32(decSize),
	}
	return nil
}

// Close writes the central index and the header and closes the archive.
func (w *BundleWriter) Close() error {
	if len(w.dirStack) != 1 {
		w.hdl.Close()
		return eris.New("Open directories left over!")
	}

	items := int32(0)
	buffer := make([]byte, 48)
	tocOffset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		w.hdl.Close()
		return err
	}

	err = writeIndexEntries(w.root, w.hdl, &items, buffer)
	if err != nil {
		w.hdl.Close()
		return err
	}

	_, err = w.hdl.Seek(0, io.SeekStart)
	if err != nil {
		w.hdl.Close()
		return err
	}

	copy(buffer[:4], "LPAK")
	binary.LittleEndian.PutUint32(buffer[4:8], 1)
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(tocOffset))
	binary.LittleEndian.PutUint32(buffer[12:16], uint32(items))

	_, err = w.hdl.Write(buffer[:16])
	if err != nil {
		w.hdl.Close()
		return err
	}
	return w.hdl.Close()
}

func writeIndexEntry(hdl *os.File, buffer []byte, entry bundleEntry, name string) error {
	binary.LittleEndian.PutUint32(buffer[:4], uint32(entry.offset))
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(entry.size))
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(entry.decSize))
	binary.LittleEndian.PutUint16(buffer[12:14], uint16(len(name)))

	_, err := hdl.Write(buffer[:14])
	if err != nil {
		return err
	}

	_, err = hdl.WriteString(name)
	return err
}

func writeIndexEntries(dir *bundleDir, hdl *os.File, items *int32, buffer []byte) error {
	for name, sub := range dir.dirs {
		// directories carry zeroed metadata; ".." pops back up on read
		err := writeIndexEntry(hdl, buffer, bundleEntry{}, name)
		if err != nil {
			return err
		}

		err = writeIndexEntries(sub, hdl, items, buffer)
		if err != nil {
			return err
		}

		err = writeIndexEntry(hdl, buffer, bundleEntry{}, "..")
		if err != nil {
			return err
		}
	}

	for name, entry := range dir.files {
		err := writeIndexEntry(hdl, buffer, *entry, name)
		if err != nil {
			return err
		}
	}

	*items += int32(len(dir.dirs)*2 + len(dir.files))
	return nil
}
