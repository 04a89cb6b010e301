// Package snapshot saves and restores the entity state of a world.
//
// A snapshot file is a zstd stream holding one JSON header line followed by
// the gob encoded body. The header carries a BLAKE2b digest of the body and
// can be read without decoding it.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	"github.com/akmonengine/voxelphys"
	"github.com/akmonengine/voxelphys/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const Version = 1

var (
	ErrVersion  = errors.New("snapshot: unsupported version")
	ErrChecksum = errors.New("snapshot: body checksum mismatch")
	ErrSections = errors.New("snapshot: section count mismatch")
)

type Header struct {
	Version  int    `json:"version"`
	Tick     uint64 `json:"tick"`
	Entities int    `json:"entities"`
	Chunks   int    `json:"chunks"`
}

// fileHeader is the header line as written, with the body digest
type fileHeader struct {
	Header
	Digest string `json:"digest"`
}

type SnapshotV1 struct {
	Header   Header
	Sections int
	Chunks   []ChunkV1
	Entities []EntityV1
}

type ChunkV1 struct {
	X, Z int
}

type EntityV1 struct {
	ID       uint64
	Class    string
	Position [3]float64
	Velocity [3]float64
	Width    float64
	Height   float64
	OnGround bool
}

// Capture copies the state of w. Entities keep their insertion order and
// chunks are sorted by (x, z).
func Capture(w *voxelphys.World) SnapshotV1 {
	snap := SnapshotV1{Sections: w.SectionCount()}

	for _, pos := range w.ChunkPositions() {
		snap.Chunks = append(snap.Chunks, ChunkV1{X: pos.X, Z: pos.Z})
	}
	for _, e := range w.Entities() {
		snap.Entities = append(snap.Entities, EntityV1{
			ID:       e.ID,
			Class:    string(e.Class),
			Position: e.Position,
			Velocity: e.Velocity,
			Width:    e.Width,
			Height:   e.Height,
			OnGround: e.OnGround,
		})
	}

	snap.Header = Header{
		Version:  Version,
		Tick:     w.Tick(),
		Entities: len(snap.Entities),
		Chunks:   len(snap.Chunks),
	}
	return snap
}

// Restore loads the saved chunks and entities into w and resumes its tick
// counter. An entity already present under a saved ID is replaced. w must
// have the section count the snapshot was taken with, otherwise nothing is
// loaded.
func (s SnapshotV1) Restore(w *voxelphys.World) error {
	if s.Header.Version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, s.Header.Version)
	}
	if s.Sections != w.SectionCount() {
		return fmt.Errorf("%w: snapshot has %d, world has %d", ErrSections, s.Sections, w.SectionCount())
	}

	for _, c := range s.Chunks {
		w.LoadChunk(c.X, c.Z)
	}

	var errs []error
	for _, ev := range s.Entities {
		if _, ok := w.Entity(ev.ID); ok {
			if err := w.RemoveEntity(ev.ID); err != nil {
				errs = append(errs, err)
				continue
			}
		}

		e := actor.NewEntity(ev.ID, actor.Class(ev.Class), mgl64.Vec3(ev.Position), ev.Width, ev.Height)
		e.Velocity = ev.Velocity
		e.OnGround = ev.OnGround
		if err := w.AddEntity(e); err != nil {
			errs = append(errs, fmt.Errorf("entity %d: %w", ev.ID, err))
		}
	}

	w.SetTick(s.Header.Tick)
	return errors.Join(errs...)
}

// Write encodes snap to out, compressed.
func Write(out io.Writer, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(enc)
	if err := encode(bw, snap); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func encode(bw *bufio.Writer, snap SnapshotV1) error {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	sum := blake2b.Sum256(body.Bytes())

	hb, err := json.Marshal(fileHeader{Header: snap.Header, Digest: hex.EncodeToString(sum[:])})
	if err != nil {
		return fmt.Errorf("json header: %w", err)
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	_, err = bw.Write(body.Bytes())
	return err
}

// Read decodes a snapshot written by Write.
func Read(in io.Reader) (SnapshotV1, error) {
	var snap SnapshotV1

	dec, err := zstd.NewReader(in)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	header, err := readHeader(br)
	if err != nil {
		return snap, err
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return snap, fmt.Errorf("reading body: %w", err)
	}
	sum := blake2b.Sum256(body)
	if hex.EncodeToString(sum[:]) != header.Digest {
		return snap, ErrChecksum
	}

	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	snap.Header = header.Header
	return snap, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(in io.Reader) (Header, error) {
	dec, err := zstd.NewReader(in)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()

	h, err := readHeader(bufio.NewReader(dec))
	return h.Header, err
}

func readHeader(br *bufio.Reader) (fileHeader, error) {
	var h fileHeader

	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("parsing header: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, nil
}

func WriteFile(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := Write(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadFile(path string) (SnapshotV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	defer f.Close()

	return Read(f)
}

// Equal reports whether two snapshots hold the same state.
func (s SnapshotV1) Equal(other SnapshotV1) bool {
	return s.Header == other.Header &&
		s.Sections == other.Sections &&
		slices.Equal(s.Chunks, other.Chunks) &&
		slices.Equal(s.Entities, other.Entities)
}
