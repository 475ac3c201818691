package scene

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

// The cache stores a parsed scene so the OBJ/MTL parse and the tangent
// pass can be skipped on the next start. Everything is little-endian.
// Array lengths are uint32, string lengths uint16. The file starts with
// the source path it was built from and is only accepted for that path.

const maxCacheString = 1<<16 - 1

type cacheWriter struct {
	w   *bufio.Writer
	err error
}

func (cw *cacheWriter) put(v any) {
	if cw.err != nil {
		return
	}
	cw.err = binary.Write(cw.w, binary.LittleEndian, v)
}

func (cw *cacheWriter) raw(b []byte) {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.Write(b)
}

func (cw *cacheWriter) str(s string) {
	if len(s) > maxCacheString {
		if cw.err == nil {
			cw.err = fmt.Errorf("string of %d bytes does not fit the cache", len(s))
		}
		return
	}
	cw.put(uint16(len(s)))
	cw.raw([]byte(s))
}

func writeMeshes[V VertexKind](cw *cacheWriter, meshes []Mesh[V], tangent bool) {
	cw.put(uint32(len(meshes)))
	for i := range meshes {
		m := &meshes[i]
		cw.put(uint32(len(m.Vertices)))
		cw.raw(sliceBytes(m.Vertices))
		cw.put(uint32(len(m.Indices)))
		cw.raw(sliceBytes(m.Indices))
		cw.put(m.InitTransform.Data)
		cw.put(m.IndexOffset)
		cw.put(m.VertexOffset)
		cw.put(m.TextureIndex)
		if tangent {
			cw.put(m.NormalMapIndex)
		}
		cw.str(m.Name)
	}
}

func writeStrings(cw *cacheWriter, values []string) {
	cw.put(uint32(len(values)))
	for _, v := range values {
		cw.str(v)
	}
}

// EncodeCache writes the scene geometry, texture paths and debug names.
// Lights and camera are not cached; they come from their own files.
func EncodeCache(w io.Writer, s *Scene) error {
	cw := &cacheWriter{w: bufio.NewWriter(w)}
	cw.str(s.Source)
	writeMeshes(cw, s.Meshes, false)
	writeMeshes(cw, s.TangentMeshes, true)
	writeStrings(cw, s.Textures.Paths())
	writeStrings(cw, s.NormalMaps.Paths())
	writeStrings(cw, s.DebugNames)
	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

type cacheReader struct {
	r   *bufio.Reader
	err error
}

func (cr *cacheReader) get(v any) {
	if cr.err != nil {
		return
	}
	cr.err = binary.Read(cr.r, binary.LittleEndian, v)
}

func (cr *cacheReader) u32() uint32 {
	var v uint32
	cr.get(&v)
	return v
}

func (cr *cacheReader) i32() int32 {
	var v int32
	cr.get(&v)
	return v
}

func (cr *cacheReader) str() string {
	var n uint16
	cr.get(&n)
	if cr.err != nil {
		return ""
	}
	b := make([]byte, n)
	_, cr.err = io.ReadFull(cr.r, b)
	return string(b)
}

// readSlice reads count elements of T as raw bytes.
func readSlice[T VertexKind | uint32](cr *cacheReader, count uint32) []T {
	if cr.err != nil || count == 0 {
		return nil
	}
	var zero T
	size := uint64(count) * uint64(unsafe.Sizeof(zero))
	// A corrupt count must not turn into a huge allocation.
	if size > 1<<31 {
		cr.err = fmt.Errorf("array of %d bytes", size)
		return nil
	}
	out := make([]T, count)
	_, cr.err = io.ReadFull(cr.r, sliceBytes(out))
	return out
}

func readMeshes[V VertexKind](cr *cacheReader, tangent bool) []Mesh[V] {
	n := cr.u32()
	if cr.err != nil {
		return nil
	}
	meshes := make([]Mesh[V], 0, min(n, 1<<16))
	for range n {
		var m Mesh[V]
		m.Vertices = readSlice[V](cr, cr.u32())
		m.Indices = readSlice[uint32](cr, cr.u32())
		var data [16]float32
		cr.get(&data)
		m.InitTransform = math.Mat4{Data: data}
		m.IndexOffset = cr.i32()
		m.VertexOffset = cr.i32()
		m.TextureIndex = cr.i32()
		m.NormalMapIndex = NoNormalMap
		if tangent {
			m.NormalMapIndex = cr.i32()
		}
		m.Name = cr.str()
		if cr.err != nil {
			return nil
		}
		meshes = append(meshes, m)
	}
	return meshes
}

func readStrings(cr *cacheReader) []string {
	n := cr.u32()
	if cr.err != nil {
		return nil
	}
	out := make([]string, 0, min(n, 1<<16))
	for range n {
		s := cr.str()
		if cr.err != nil {
			return nil
		}
		out = append(out, s)
	}
	return out
}

// DecodeCache reads a scene written by EncodeCache. The scene is rejected
// with ErrInvalidCache if it was built from a different source or fails
// validation.
func DecodeCache(r io.Reader, source string, camera *Camera) (*Scene, error) {
	cr := &cacheReader{r: bufio.NewReader(r)}
	key := cr.str()
	if cr.err != nil {
		return nil, fmt.Errorf("reading cache header: %v: %w", cr.err, core.ErrInvalidCache)
	}
	if key != source {
		return nil, fmt.Errorf("cache built from %q, want %q: %w", key, source, core.ErrInvalidCache)
	}

	s := New(source, camera)
	s.Meshes = readMeshes[Vertex](cr, false)
	s.TangentMeshes = readMeshes[VertexWithTangent](cr, true)
	for _, p := range readStrings(cr) {
		s.Textures.Add(p)
	}
	for _, p := range readStrings(cr) {
		s.NormalMaps.Add(p)
	}
	s.DebugNames = readStrings(cr)
	if cr.err != nil {
		return nil, fmt.Errorf("%v: %w", cr.err, core.ErrInvalidCache)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrInvalidCache)
	}
	return s, nil
}

// WriteCache stores s at path, creating the directory if needed. The file
// is written next to its final name and renamed so a crash never leaves a
// half-written cache behind.
func WriteCache(path string, s *Scene) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := EncodeCache(f, s); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadCache loads the cache at path. A missing file reports fs.ErrNotExist.
func ReadCache(path, source string, camera *Camera) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCache(f, source, camera)
}

// InvalidateCache removes the cache file. A missing file is not an error.
func InvalidateCache(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
