package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Persisted layout, one directory per index:
//
//	index.bin     — geometry blob: magic, version, dimension, count, vectors
//	texts.json    — JSON array of document texts
//	metadata.json — JSON array of metadata records
//
// The three artifacts are index-aligned with each other.
const (
	geometryFile = "index.bin"
	textsFile    = "texts.json"
	metadataFile = "metadata.json"
)

var geometryMagic = [4]byte{'T', 'D', 'X', 'F'}

const geometryVersion uint32 = 1

// Save writes the index to dir, creating it if needed.
func (ix *Flat) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	if err := ix.writeGeometry(filepath.Join(dir, geometryFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, textsFile), ix.texts); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), ix.metadatas); err != nil {
		return err
	}
	return nil
}

// Load replaces the index contents from dir. A missing directory returns
// domain.ErrIndexNotFound so callers can treat a cold index as empty.
// Malformed artifacts return domain.ErrIndexCorrupt and leave the in-memory
// index unchanged.
func (ix *Flat) Load(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dir)
	}

	dim, vectors, err := readGeometry(filepath.Join(dir, geometryFile))
	if err != nil {
		return err
	}
	if dim != ix.dim {
		return fmt.Errorf("%w: stored dimension %d, index configured for %d",
			domain.ErrDimensionMismatch, dim, ix.dim)
	}

	var texts []string
	if err := readJSON(filepath.Join(dir, textsFile), &texts); err != nil {
		return err
	}
	var metadatas []domain.Metadata
	if err := readJSON(filepath.Join(dir, metadataFile), &metadatas); err != nil {
		return err
	}

	if len(texts) != len(vectors) || len(metadatas) != len(vectors) {
		return fmt.Errorf("%w: misaligned artifacts (%d vectors, %d texts, %d metadata records)",
			domain.ErrIndexCorrupt, len(vectors), len(texts), len(metadatas))
	}

	ix.texts = texts
	ix.metadatas = metadatas
	ix.vectors = vectors
	return nil
}

func (ix *Flat) writeGeometry(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create geometry file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	copy(header[0:4], geometryMagic[:])
	binary.LittleEndian.PutUint32(header[4:8], geometryVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(ix.dim))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(ix.vectors)))
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("write geometry header: %w", err)
	}

	buf := make([]byte, ix.dim*4)
	for _, v := range ix.vectors {
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("write geometry vectors: %w", err)
		}
	}
	return nil
}

func readGeometry(path string) (int, [][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read geometry: %v", domain.ErrIndexCorrupt, err)
	}
	if len(data) < 16 || [4]byte(data[0:4]) != geometryMagic {
		return 0, nil, fmt.Errorf("%w: bad geometry header", domain.ErrIndexCorrupt)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != geometryVersion {
		return 0, nil, fmt.Errorf("%w: unsupported geometry version %d", domain.ErrIndexCorrupt, v)
	}

	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))
	body := data[16:]
	if dim <= 0 || count < 0 || len(body) != count*dim*4 {
		return 0, nil, fmt.Errorf("%w: geometry body is %d bytes, expected %d",
			domain.ErrIndexCorrupt, len(body), count*dim*4)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		v := make([]float32, dim)
		off := i * dim * 4
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off+j*4:]))
		}
		vectors[i] = v
	}
	return dim, vectors, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrIndexCorrupt, filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrIndexCorrupt, filepath.Base(path), err)
	}
	return nil
}
