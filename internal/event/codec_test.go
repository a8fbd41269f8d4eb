package event

import (
	"errors"
	"testing"
)

func representableEvents() []Data {
	return []Data{
		Connect(),
		ConnectAck(0),
		ConnectAck(255),
		Spawn(3, 0),
		Spawn(255, 65535),
		Move(7, 513),
		Discover(1, 4096),
		Score(2, 1),
		Score(9, 65535),
		Die(4),
		FieldCreate(1),
		FieldCreate(255),
		CellDiscover(0, 0),
		CellDiscover(65024, 8),
		CellExplode(12),
		CellExplode(65535),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, data := range representableEvents() {
		frame := Encode(data)
		decoded, err := Decode(frame[:])
		if err != nil {
			t.Fatalf("decode %v: %v", data, err)
		}
		if decoded != data {
			t.Fatalf("round trip mismatch: encoded %v, decoded %v", data, decoded)
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	cases := []struct {
		data Data
		want Frame
	}{
		{Connect(), Frame{0, 0, 0, 0}},
		{ConnectAck(5), Frame{1, 5, 0, 0}},
		{Spawn(2, 0x0102), Frame{2, 2, 0x02, 0x01}},
		{Score(1, 300), Frame{5, 1, 44, 1}},
		{FieldCreate(8), Frame{7, 8, 0, 0}},
		{CellDiscover(0x0a0b, 3), Frame{8, 0x0b, 0x0a, 3}},
		{CellExplode(9), Frame{9, 9, 0, 0}},
	}
	for _, tc := range cases {
		if got := Encode(tc.data); got != tc.want {
			t.Fatalf("Encode(%v) = %v, want %v", tc.data, got, tc.want)
		}
	}
}

func TestDecodeZeroPaddedFramesForEveryKind(t *testing.T) {
	for kind := KindConnect; kind < kindCount; kind++ {
		frame := Frame{byte(kind)}
		data, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("decode zero padded %s: %v", kind, err)
		}
		if data.Kind != kind {
			t.Fatalf("expected kind %s, got %s", kind, data.Kind)
		}
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	if _, err := Decode([]byte{byte(kindCount), 0, 0, 0}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := Decode([]byte{0, 0}); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("expected ErrFrameSize for short input, got %v", err)
	}
	if _, err := Decode(make([]byte, Size+1)); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("expected ErrFrameSize for long input, got %v", err)
	}
}
