// Package xfer is the save/load/checksum visitor. A snapshotted type walks its
// persistent fields in a fixed order and the visitor either writes, reads, or
// folds each one into a checksum, so a single method serves all three.
package xfer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrVersionTooNew is returned when loading data written by a newer version.
var ErrVersionTooNew = errors.New("xfer version newer than supported")

// Mode says what a visitor does with the fields it is handed.
type Mode int

const (
	ModeSave Mode = iota
	ModeLoad
	ModeCRC
)

func (m Mode) String() string {
	switch m {
	case ModeSave:
		return "save"
	case ModeLoad:
		return "load"
	case ModeCRC:
		return "crc"
	default:
		return "unknown"
	}
}

// Xfer visits one primitive at a time. On save and CRC the pointee is read;
// on load it is overwritten.
type Xfer interface {
	Mode() Mode
	// Version transfers a version tag. On save it writes *v; on load it
	// reads into *v and fails if the stored version exceeds current.
	Version(v *uint8, current uint8) error
	Real(v *float32) error
	Coord3D(v *mgl32.Vec3) error
	Int(v *int32) error
	UnsignedInt(v *uint32) error
	Byte(v *uint8) error
	ObjectID(v *uint32) error
}

// Snapshotter is implemented by anything that persists through an Xfer.
type Snapshotter interface {
	CRC(x Xfer) error
	Xfer(x Xfer) error
	LoadPostProcess()
}

// SaveXfer writes fields as a msgpack stream.
type SaveXfer struct {
	enc *msgpack.Encoder
}

// NewSaveXfer returns a visitor that encodes to w.
func NewSaveXfer(w io.Writer) *SaveXfer {
	return &SaveXfer{enc: msgpack.NewEncoder(w)}
}

func (s *SaveXfer) Mode() Mode { return ModeSave }

func (s *SaveXfer) Version(v *uint8, current uint8) error {
	return s.enc.EncodeUint8(*v)
}

func (s *SaveXfer) Real(v *float32) error { return s.enc.EncodeFloat32(*v) }

func (s *SaveXfer) Coord3D(v *mgl32.Vec3) error {
	for i := 0; i < 3; i++ {
		if err := s.enc.EncodeFloat32(v[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SaveXfer) Int(v *int32) error         { return s.enc.EncodeInt32(*v) }
func (s *SaveXfer) UnsignedInt(v *uint32) error { return s.enc.EncodeUint32(*v) }
func (s *SaveXfer) Byte(v *uint8) error         { return s.enc.EncodeUint8(*v) }
func (s *SaveXfer) ObjectID(v *uint32) error    { return s.enc.EncodeUint32(*v) }

// LoadXfer reads fields back from a msgpack stream written by SaveXfer.
type LoadXfer struct {
	dec *msgpack.Decoder
}

// NewLoadXfer returns a visitor that decodes from r.
func NewLoadXfer(r io.Reader) *LoadXfer {
	return &LoadXfer{dec: msgpack.NewDecoder(r)}
}

func (l *LoadXfer) Mode() Mode { return ModeLoad }

func (l *LoadXfer) Version(v *uint8, current uint8) error {
	got, err := l.dec.DecodeUint8()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if got > current {
		return fmt.Errorf("version %d, current %d: %w", got, current, ErrVersionTooNew)
	}
	*v = got
	return nil
}

func (l *LoadXfer) Real(v *float32) error {
	f, err := l.dec.DecodeFloat32()
	if err != nil {
		return err
	}
	*v = f
	return nil
}

func (l *LoadXfer) Coord3D(v *mgl32.Vec3) error {
	for i := 0; i < 3; i++ {
		if err := l.Real(&v[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *LoadXfer) Int(v *int32) error {
	n, err := l.dec.DecodeInt32()
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (l *LoadXfer) UnsignedInt(v *uint32) error {
	n, err := l.dec.DecodeUint32()
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (l *LoadXfer) Byte(v *uint8) error {
	n, err := l.dec.DecodeUint8()
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (l *LoadXfer) ObjectID(v *uint32) error { return l.UnsignedInt(v) }

// CRCXfer folds every field into a CRC-32 (IEEE) over little-endian bytes.
type CRCXfer struct {
	h   hash.Hash32
	buf [4]byte
}

// NewCRCXfer returns a checksum visitor with an empty sum.
func NewCRCXfer() *CRCXfer {
	return &CRCXfer{h: crc32.NewIEEE()}
}

func (c *CRCXfer) Mode() Mode { return ModeCRC }

// Sum returns the checksum of everything visited so far.
func (c *CRCXfer) Sum() uint32 { return c.h.Sum32() }

func (c *CRCXfer) word(v uint32) error {
	binary.LittleEndian.PutUint32(c.buf[:], v)
	_, err := c.h.Write(c.buf[:])
	return err
}

func (c *CRCXfer) Version(v *uint8, current uint8) error { return c.Byte(v) }

func (c *CRCXfer) Real(v *float32) error { return c.word(math.Float32bits(*v)) }

func (c *CRCXfer) Coord3D(v *mgl32.Vec3) error {
	for i := 0; i < 3; i++ {
		if err := c.word(math.Float32bits(v[i])); err != nil {
			return err
		}
	}
	return nil
}

func (c *CRCXfer) Int(v *int32) error          { return c.word(uint32(*v)) }
func (c *CRCXfer) UnsignedInt(v *uint32) error { return c.word(*v) }
func (c *CRCXfer) ObjectID(v *uint32) error    { return c.word(*v) }

func (c *CRCXfer) Byte(v *uint8) error {
	_, err := c.h.Write([]byte{*v})
	return err
}
