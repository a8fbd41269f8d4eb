package event

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the length of every frame on the wire. Both ends must agree on it
// at build time; it is never negotiated.
const Size = 4

var (
	// ErrUnknownKind reports a frame whose discriminant is not a known kind.
	ErrUnknownKind = errors.New("event: unknown kind")
	// ErrFrameSize reports input that is not exactly one frame long.
	ErrFrameSize = errors.New("event: invalid frame size")
)

// Frame is one encoded event: the kind in byte 0, the payload packed little
// endian after it and zero padding up to Size.
type Frame [Size]byte

// Encode packs the payload into a fixed-size frame.
func Encode(d Data) Frame {
	var f Frame
	f[0] = byte(d.Kind)
	payload := f[1:]
	switch d.Kind {
	case KindConnectAck, KindDie:
		payload[0] = d.ID
	case KindSpawn, KindMove, KindDiscover:
		payload[0] = d.ID
		binary.LittleEndian.PutUint16(payload[1:], d.Position)
	case KindScore:
		payload[0] = d.ID
		binary.LittleEndian.PutUint16(payload[1:], d.Score)
	case KindFieldCreate:
		payload[0] = d.Size
	case KindCellDiscover:
		binary.LittleEndian.PutUint16(payload, d.Position)
		payload[2] = d.MinesAround
	case KindCellExplode:
		binary.LittleEndian.PutUint16(payload, d.Position)
	}
	return f
}

// Decode unpacks a frame. Trailing padding is ignored.
func Decode(b []byte) (Data, error) {
	if len(b) != Size {
		return Data{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(b), Size)
	}
	kind := Kind(b[0])
	payload := b[1:]
	switch kind {
	case KindConnect:
		return Connect(), nil
	case KindConnectAck:
		return ConnectAck(payload[0]), nil
	case KindSpawn:
		return Spawn(payload[0], binary.LittleEndian.Uint16(payload[1:])), nil
	case KindMove:
		return Move(payload[0], binary.LittleEndian.Uint16(payload[1:])), nil
	case KindDiscover:
		return Discover(payload[0], binary.LittleEndian.Uint16(payload[1:])), nil
	case KindScore:
		return Score(payload[0], binary.LittleEndian.Uint16(payload[1:])), nil
	case KindDie:
		return Die(payload[0]), nil
	case KindFieldCreate:
		return FieldCreate(payload[0]), nil
	case KindCellDiscover:
		return CellDiscover(binary.LittleEndian.Uint16(payload), payload[2]), nil
	case KindCellExplode:
		return CellExplode(binary.LittleEndian.Uint16(payload)), nil
	default:
		return Data{}, fmt.Errorf("%w: %d", ErrUnknownKind, b[0])
	}
}

// DecodeFrame is Decode for a value that is already frame sized.
func DecodeFrame(f Frame) (Data, error) {
	return Decode(f[:])
}
