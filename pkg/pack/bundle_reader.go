package pack

import (
	"encoding/binary"
	"io"
	"os"
	"path"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// IndexEntry describes one packed file as recorded in the bundle index.
type IndexEntry struct {
	Offset  int32
	Size    int32
	DecSize int32
}

// ReadIndex parses a bundle's central index and returns the contained files
// keyed by their slash-separated archive path.
func ReadIndex(filename string) (map[string]IndexEntry, error) {
	hdl, err := os.Open(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to open %s", filename)
	}
	defer hdl.Close()

	header := make([]byte, 16)
	_, err = io.ReadFull(hdl, header)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to read header of %s", filename)
	}

	if string(header[:4]) != "LPAK" {
		return nil, eris.Errorf("%s is not a bundle file", filename)
	}

	tocOffset := binary.LittleEndian.Uint32(header[8:12])
	items := binary.LittleEndian.Uint32(header[12:16])

	_, err = hdl.Seek(int64(tocOffset), io.SeekStart)
	if err != nil {
		return nil, err
	}

	result := make(map[string]IndexEntry)
	entryBuf := make([]byte, 14)
	prefix := ""

	for idx := uint32(0); idx < items; idx++ {
		_, err = io.ReadFull(hdl, entryBuf)
		if err != nil {
			return nil, eris.Wrapf(err, "Truncated index in %s", filename)
		}

		offset := int32(binary.LittleEndian.Uint32(entryBuf[:4]))
		size := int32(binary.LittleEndian.Uint32(entryBuf[4:8]))
		decSize := int32(binary.LittleEndian.Uint32(entryBuf[8:12]))
		nameLen := binary.LittleEndian.Uint16(entryBuf[12:14])

		nameBuf := make([]byte, nameLen)
		_, err = io.ReadFull(hdl, nameBuf)
		if err != nil {
			return nil, eris.Wrapf(err, "Truncated index in %s", filename)
		}
		name := string(nameBuf)

		if offset == 0 && size == 0 && decSize == 0 {
			// directory marker
			if name == ".." {
				prefix = path.Dir(prefix)
				if prefix == "." {
					prefix = ""
				}
			} else {
				prefix = path.Join(prefix, name)
			}
			continue
		}

		result[path.Join(prefix, name)] = IndexEntry{Offset: offset, Size: size, DecSize: decSize}
	}

	return result, nil
}

// ExtractFile decompresses a single entry from a bundle.
func ExtractFile(filename string, entry IndexEntry) ([]byte, error) {
	hdl, err := os.Open(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to open %s", filename)
	}
	defer hdl.Close()

	section := io.NewSectionReader(hdl, int64(entry.Offset), int64(entry.Size))
	data, err := io.ReadAll(brotli.NewReader(section))
	if err != nil {
		return nil, eris.Wrap(err, "Failed to decompress bundle entry")
	}
	return data, nil
}
