package eapol

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testKeyFrame is message 1 of a 4-way handshake with a 16 byte MIC and 3
// bytes of key data.
var testKeyFrame = []byte{
	0x01, 0x03, 0x00, 0x5f, 0x02, 0x00, 0x8a, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x39, 0x5c, 0xc7, 0x6e, 0x1a, 0xe9, 0x9f, 0xa0, 0xb1, 0x22, 0x79,
	0xfe, 0xc3, 0xb9, 0xa9, 0x9e, 0x1d, 0x9a, 0x21, 0xb8, 0x47, 0x51, 0x38, 0x98, 0x25,
	0xf8, 0xc7, 0xca, 0x55, 0x86, 0xbc, 0xda, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x03, 0x01, 0x02, 0x03,
}

// testKeyFrameMIC32 carries a 32 byte MIC, as used by the SHA-384 AKMs.
var testKeyFrameMIC32 = []byte{
	0x01, 0x03, 0x00, 0x6f, 0x02, 0x00, 0x8a, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
	0x07, 0x08, 0x00, 0x00, 0x01, 0x39, 0x5c, 0xc7, 0x6e, 0x1a, 0xe9, 0x9f, 0xa0, 0xb1,
	0x22, 0x79, 0xfe, 0xc3, 0xb9, 0xa9, 0x9e, 0x1d, 0x9a, 0x21, 0xb8, 0x47, 0x51, 0x38,
	0x98, 0x25, 0xf8, 0xc7, 0xca, 0x55, 0x86, 0xbc, 0xda, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x03, 0x01, 0x02, 0x03,
}

// testKeyFrameWithMIC is testKeyFrame with a non-zero MIC.
var testKeyFrameWithMIC = []byte{
	0x01, 0x03, 0x00, 0x5f, 0x02, 0x00, 0x8a, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x39, 0x5c, 0xc7, 0x6e, 0x1a, 0xe9, 0x9f, 0xa0, 0xb1, 0x22, 0x79,
	0xfe, 0xc3, 0xb9, 0xa9, 0x9e, 0x1d, 0x9a, 0x21, 0xb8, 0x47, 0x51, 0x38, 0x98, 0x25,
	0xf8, 0xc7, 0xca, 0x55, 0x86, 0xbc, 0xda, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	// MIC
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e,
	0x0f, 0x10,
	0x00, 0x03, 0x01, 0x02, 0x03,
}

// micOffset is the offset of the MIC within a key frame.
const micOffset = 81

func TestParseKeyFrameOK(t *testing.T) {
	want := &KeyFrame{
		Version:          ProtocolVersion2001,
		PacketType:       PacketTypeKey,
		PacketBodyLength: 95,
		DescriptorType:   DescriptorTypeIEEE802_11,
		KeyInfo:          0x008a,
		KeyLength:        16,
		ReplayCounter:    1,
		Nonce: [NonceLen]byte{
			0x39, 0x5c, 0xc7, 0x6e, 0x1a, 0xe9, 0x9f, 0xa0, 0xb1, 0x22, 0x79, 0xfe, 0xc3, 0xb9,
			0xa9, 0x9e, 0x1d, 0x9a, 0x21, 0xb8, 0x47, 0x51, 0x38, 0x98, 0x25, 0xf8, 0xc7, 0xca,
			0x55, 0x86, 0xbc, 0xda,
		},
		MIC:           make([]byte, 16),
		KeyDataLength: 3,
		KeyData:       []byte{0x01, 0x02, 0x03},
	}

	got, err := ParseKeyFrame(testKeyFrame, 16)
	if err != nil {
		t.Fatalf("failed to parse key frame: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected key frame (-want +got):\n%s", diff)
	}

	if want, got := uint8(2), got.KeyInfo.DescriptorVersion(); want != got {
		t.Fatalf("unexpected descriptor version:\n- want: %d\n-  got: %d",
			want, got)
	}
	if !got.KeyInfo.KeyACK() {
		t.Fatal("expected key ack bit to be set")
	}
}

func TestParseKeyFrameDoesNotRetainInput(t *testing.T) {
	b := append([]byte(nil), testKeyFrameWithMIC...)

	f, err := ParseKeyFrame(b, 16)
	if err != nil {
		t.Fatalf("failed to parse key frame: %v", err)
	}

	for i := range b {
		b[i] = 0xff
	}

	if want, got := byte(0x01), f.MIC[0]; want != got {
		t.Fatalf("unexpected MIC byte after modifying input:\n- want: %#02x\n-  got: %#02x",
			want, got)
	}
	if diff := cmp.Diff([]byte{0x01, 0x02, 0x03}, f.KeyData); diff != "" {
		t.Fatalf("unexpected key data after modifying input (-want +got):\n%s", diff)
	}
}

func TestParseKeyFrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		b       []byte
		micSize uint16
		err     error
	}{
		{
			name: "empty",
			err:  ErrTruncated,
		},
		{
			name:    "not a key frame",
			b:       withByte(testKeyFrame, 1, byte(PacketTypeStart)),
			micSize: 16,
			err:     ErrWrongPacketType,
		},
		{
			name: "key data too long",
			b: append(append([]byte(nil), testKeyFrame[:len(testKeyFrame)-5]...),
				0x00, 0x03, 0x01, 0x02, 0x03, 0x04),
			micSize: 16,
			err:     ErrTrailingBytes,
		},
		{
			name:    "key data too short",
			b:       append(append([]byte(nil), testKeyFrame[:len(testKeyFrame)-5]...), 0x00, 0x03, 0x01),
			micSize: 16,
			err:     ErrTruncated,
		},
		{
			name:    "MIC larger than frame",
			b:       testKeyFrame,
			micSize: 32,
			err:     ErrTruncated,
		},
		{
			name:    "MIC smaller than frame",
			b:       testKeyFrameMIC32,
			micSize: 16,
			err:     ErrTrailingBytes,
		},
		{
			name:    "header only",
			b:       testKeyFrame[:HeaderLen],
			micSize: 16,
			err:     ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeyFrame(tt.b, tt.micSize)
			if !errors.Is(err, tt.err) {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
					tt.err, err)
			}

			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DecodeError, got: %T", err)
			}

			t.Logf("err: %v", err)
		})
	}
}

func TestParseKeyFrameWrongPacketType(t *testing.T) {
	for i := 0; i <= math.MaxUint8; i++ {
		if PacketType(i) == PacketTypeKey {
			continue
		}

		_, err := ParseKeyFrame(withByte(testKeyFrame, 1, byte(i)), 16)
		if !errors.Is(err, ErrWrongPacketType) {
			t.Fatalf("packet type %d: unexpected error:\n- want: %v\n-  got: %v",
				i, ErrWrongPacketType, err)
		}
	}
}

func TestParseKeyFrameTruncated(t *testing.T) {
	// Every strict prefix of a valid frame must fail to parse.
	for _, b := range [][]byte{testKeyFrame, testKeyFrameWithMIC} {
		for n := 0; n < len(b); n++ {
			_, err := ParseKeyFrame(b[:n], 16)
			if !errors.Is(err, ErrTruncated) && !errors.Is(err, ErrTrailingBytes) {
				t.Fatalf("prefix of %d bytes: unexpected error: %v", n, err)
			}
		}
	}
}

func TestParseKeyFrameTruncatedDoesNotAllocateDeclaredLengths(t *testing.T) {
	// A frame ending two bytes into its MIC, parsed with the largest
	// possible MIC size.
	frame := append(append([]byte(nil), testKeyFrame[:micOffset]...), 0xff, 0xff)

	res := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := ParseKeyFrame(frame, math.MaxUint16); !errors.Is(err, ErrTruncated) {
				b.Fatalf("unexpected error: %v", err)
			}
		}
	})

	if got := res.AllocedBytesPerOp(); got > 4096 {
		t.Fatalf("allocated %d bytes per parse of a %d byte frame", got, len(frame))
	}

	// Same with a MIC that fits and a key data length that does not.
	frame = append(append([]byte(nil), testKeyFrame[:micOffset+16]...), 0xff, 0xff)
	res = testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := ParseKeyFrame(frame, 16); !errors.Is(err, ErrTruncated) {
				b.Fatalf("unexpected error: %v", err)
			}
		}
	})

	if got := res.AllocedBytesPerOp(); got > 4096 {
		t.Fatalf("allocated %d bytes per parse of a %d byte frame", got, len(frame))
	}
}

func TestKeyFrameMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		b       []byte
		micSize uint16
	}{
		{
			name:    "MIC 16",
			b:       testKeyFrame,
			micSize: 16,
		},
		{
			name:    "MIC 16 non-zero",
			b:       testKeyFrameWithMIC,
			micSize: 16,
		},
		{
			name:    "MIC 32",
			b:       testKeyFrameMIC32,
			micSize: 32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseKeyFrame(tt.b, tt.micSize)
			if err != nil {
				t.Fatalf("failed to parse key frame: %v", err)
			}

			b, err := f.Marshal(false)
			if err != nil {
				t.Fatalf("failed to marshal key frame: %v", err)
			}

			if diff := cmp.Diff(tt.b, b); diff != "" {
				t.Fatalf("unexpected key frame bytes (-want +got):\n%s", diff)
			}
			if want, got := f.Len(), len(b); want != got {
				t.Fatalf("unexpected key frame length:\n- want: %d\n-  got: %d",
					want, got)
			}
			if want, got := f.Len(), cap(b); want != got {
				t.Fatalf("unexpected key frame buffer capacity:\n- want: %d\n-  got: %d",
					want, got)
			}

			f2, err := ParseKeyFrame(b, uint16(len(f.MIC)))
			if err != nil {
				t.Fatalf("failed to parse marshaled key frame: %v", err)
			}

			if diff := cmp.Diff(f, f2); diff != "" {
				t.Fatalf("unexpected round trip key frame (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeyFrameMarshalClearMIC(t *testing.T) {
	f, err := ParseKeyFrame(testKeyFrameWithMIC, 16)
	if err != nil {
		t.Fatalf("failed to parse key frame: %v", err)
	}

	withMIC, err := f.Marshal(false)
	if err != nil {
		t.Fatalf("failed to marshal key frame: %v", err)
	}
	cleared, err := f.Marshal(true)
	if err != nil {
		t.Fatalf("failed to marshal key frame with cleared MIC: %v", err)
	}

	want := append([]byte(nil), testKeyFrameWithMIC...)
	copy(want[micOffset:micOffset+16], make([]byte, 16))

	if diff := cmp.Diff(want, cleared); diff != "" {
		t.Fatalf("unexpected cleared MIC frame (-want +got):\n%s", diff)
	}

	// Only the MIC region may differ.
	if !bytes.Equal(withMIC[:micOffset], cleared[:micOffset]) ||
		!bytes.Equal(withMIC[micOffset+16:], cleared[micOffset+16:]) {
		t.Fatal("frames differ outside of the MIC region")
	}

	// The frame's own MIC must be left untouched.
	if diff := cmp.Diff(testKeyFrameWithMIC[micOffset:micOffset+16], f.MIC); diff != "" {
		t.Fatalf("MIC modified by marshaling (-want +got):\n%s", diff)
	}
}

func TestKeyFrameMarshalLength(t *testing.T) {
	for _, n := range []int{0, 1, 16, 24, 32} {
		t.Run(fmt.Sprintf("MIC %d", n), func(t *testing.T) {
			f := &KeyFrame{
				Version:       ProtocolVersion2004,
				PacketType:    PacketTypeKey,
				MIC:           bytes.Repeat([]byte{0xaa}, n),
				KeyDataLength: 5,
				KeyData:       []byte{1, 2, 3, 4, 5},
			}

			b, err := f.Marshal(false)
			if err != nil {
				t.Fatalf("failed to marshal key frame: %v", err)
			}

			if want, got := 35+NonceLen+IVLen+n+5, len(b); want != got {
				t.Fatalf("unexpected key frame length:\n- want: %d\n-  got: %d",
					want, got)
			}

			// Reserved octets precede the MIC and are always zero.
			reserved := b[micOffset-reservedLen : micOffset]
			if diff := cmp.Diff(make([]byte, reservedLen), reserved); diff != "" {
				t.Fatalf("unexpected reserved octets (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeyFrameMarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		f    *KeyFrame
	}{
		{
			name: "key data length mismatch",
			f: &KeyFrame{
				KeyDataLength: 2,
				KeyData:       []byte{0x01},
			},
		},
		{
			name: "key data too long",
			f: &KeyFrame{
				KeyDataLength: math.MaxUint16,
				KeyData:       make([]byte, math.MaxUint16+1),
			},
		},
		{
			name: "MIC too long",
			f: &KeyFrame{
				MIC: make([]byte, math.MaxUint16+1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.f.Marshal(false)
			if !errors.Is(err, ErrInvalidKeyFrame) {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
					ErrInvalidKeyFrame, err)
			}
		})
	}
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(testKeyFrame)
	if err != nil {
		t.Fatalf("failed to parse header: %v", err)
	}

	want := Header{
		Version:          ProtocolVersion2001,
		PacketType:       PacketTypeKey,
		PacketBodyLength: 95,
	}

	if diff := cmp.Diff(want, h); diff != "" {
		t.Fatalf("unexpected header (-want +got):\n%s", diff)
	}

	if _, err := ParseHeader(testKeyFrame[:3]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
			ErrTruncated, err)
	}
}

func TestPacketTypeString(t *testing.T) {
	tests := []struct {
		t PacketType
		s string
	}{
		{t: PacketTypeEAP, s: "EAP"},
		{t: PacketTypeKey, s: "key"},
		{t: PacketTypeMKA, s: "MKA"},
		{t: PacketTypeAnnouncementRequest + 1, s: "unknown(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if want, got := tt.s, tt.t.String(); want != got {
				t.Fatalf("unexpected packet type string:\n- want: %q\n-  got: %q",
					want, got)
			}
		})
	}
}

func withByte(b []byte, i int, v byte) []byte {
	out := append([]byte(nil), b...)
	out[i] = v
	return out
}

func BenchmarkParseKeyFrame(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseKeyFrame(testKeyFrame, 16); err != nil {
			b.Fatalf("failed to parse key frame: %v", err)
		}
	}
}
