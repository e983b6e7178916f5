package meshcore

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
	}{
		{"empty payload", Frame{Dir: DirFromRadio, Code: RespNoMoreMessages}},
		{"short payload", Frame{Dir: DirFromRadio, Code: RespChannelMsg, Payload: []byte{1, 0, 0, 1, 2, 3, 4, 'A', ':', ' ', 'h', 'i'}}},
		{"max payload", Frame{Dir: DirFromRadio, Code: RespChannelMsg, Payload: bytes.Repeat([]byte{0x55}, MaxPayloadSize)}},
		{"to-radio command", Frame{Dir: DirToRadio, Code: CmdSendChannelMsg, Payload: []byte{0, 1, 'h', 'i'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.frame)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			d := NewDecoder(tt.frame.Dir)
			frames := d.Feed(raw)
			if len(frames) != 1 {
				t.Fatalf("got %d frames, want 1", len(frames))
			}
			got := frames[0]
			if got.Dir != tt.frame.Dir || got.Code != tt.frame.Code || !bytes.Equal(got.Payload, tt.frame.Payload) {
				t.Errorf("round trip mismatch: got %+v want %+v", got, tt.frame)
			}
			if d.Pending() != 0 {
				t.Errorf("decoder left %d bytes pending", d.Pending())
			}
		})
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := Encode(Frame{Dir: DirFromRadio, Code: RespChannelMsg, Payload: make([]byte, MaxPayloadSize+1)})
	if err != ErrFrameTooLarge {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}

func TestDecoderRecoversAfterCorruption(t *testing.T) {
	valid, err := Encode(Frame{Dir: DirFromRadio, Code: RespChannelMsg, Payload: []byte{1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}

	// A start marker followed by an absurd length field, then noise, then
	// a valid frame. The decoder must skip the garbage and still emit the
	// valid frame.
	var stream []byte
	stream = append(stream, byte(DirFromRadio))
	stream = binary.LittleEndian.AppendUint16(stream, 5000)
	stream = append(stream, 0xDE, 0xAD, 0xBE, 0xEF)
	stream = append(stream, valid...)

	frames := NewDecoder(DirFromRadio).Feed(stream)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Code != RespChannelMsg {
		t.Errorf("recovered frame code = %d, want %d", frames[0].Code, RespChannelMsg)
	}
}

func TestDecoderBuffersPartialFrames(t *testing.T) {
	raw, err := Encode(Frame{Dir: DirFromRadio, Code: RespChannelMsg, Payload: []byte("abcdef")})
	if err != nil {
		t.Fatal(err)
	}

	d := NewDecoder(DirFromRadio)
	if frames := d.Feed(raw[:4]); len(frames) != 0 {
		t.Fatalf("emitted %d frames from a partial feed", len(frames))
	}
	frames := d.Feed(raw[4:])
	if len(frames) != 1 {
		t.Fatalf("got %d frames after completing the feed, want 1", len(frames))
	}
}

func TestDecoderSkipsInterFrameNoise(t *testing.T) {
	raw, err := Encode(Frame{Dir: DirFromRadio, Code: RespNoMoreMessages})
	if err != nil {
		t.Fatal(err)
	}
	stream := append([]byte{0x00, 0x12, 0x99}, raw...)
	stream = append(stream, 0x01, 0x02)
	stream = append(stream, raw...)

	frames := NewDecoder(DirFromRadio).Feed(stream)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
}

func buildChannelPayload(t *testing.T, code byte, channelIdx int, snrRaw byte, text string) []byte {
	t.Helper()
	payload := []byte{byte(channelIdx), 0, 0}
	if code == RespChannelMsgV3 {
		payload = append(payload, snrRaw, 0, 0)
	}
	payload = binary.LittleEndian.AppendUint32(payload, 1700000000)
	payload = append(payload, text...)
	return payload
}

func TestParseChannelMessageLegacy(t *testing.T) {
	msg, err := ParseChannelMessage(RespChannelMsg, buildChannelPayload(t, RespChannelMsg, 1, 0, "Alice: hello mesh"))
	if err != nil {
		t.Fatal(err)
	}
	if msg.ChannelIdx != 1 {
		t.Errorf("ChannelIdx = %d, want 1", msg.ChannelIdx)
	}
	if msg.Sender != "Alice" || msg.Text != "hello mesh" {
		t.Errorf("sender/text = %q/%q", msg.Sender, msg.Text)
	}
	if msg.SNR != nil {
		t.Errorf("legacy frame yielded SNR %v", *msg.SNR)
	}
}

func TestParseChannelMessageV3SNR(t *testing.T) {
	tests := []struct {
		name    string
		raw     byte
		wantSNR *float64
	}{
		{"in range", 100, f64(25.0)}, // 100/4 = 25 dB
		{"below sane range", 40, nil},
		{"above sane range", 255, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseChannelMessage(RespChannelMsgV3, buildChannelPayload(t, RespChannelMsgV3, 2, tt.raw, "Bob: 1"))
			if err != nil {
				t.Fatal(err)
			}
			if (msg.SNR == nil) != (tt.wantSNR == nil) {
				t.Fatalf("SNR presence mismatch: got %v want %v", msg.SNR, tt.wantSNR)
			}
			if msg.SNR != nil && *msg.SNR != *tt.wantSNR {
				t.Errorf("SNR = %v, want %v", *msg.SNR, *tt.wantSNR)
			}
			if msg.Sender != "Bob" || msg.Text != "1" {
				t.Errorf("sender/text = %q/%q", msg.Sender, msg.Text)
			}
		})
	}
}

func TestParseChannelMessageRejectsBadInput(t *testing.T) {
	if _, err := ParseChannelMessage(RespChannelMsg, []byte{1, 2}); err == nil {
		t.Error("short payload accepted")
	}
	if _, err := ParseChannelMessage(RespChannelMsg, buildChannelPayload(t, RespChannelMsg, 9, 0, "x")); err == nil {
		t.Error("out-of-range channel accepted")
	}
}

func TestSplitSender(t *testing.T) {
	tests := []struct {
		in         string
		sender, body string
	}{
		{"Alice: hello", "Alice", "hello"},
		{"Bob:no space", "Bob", "no space"},
		{"no prefix at all", "unknown", "no prefix at all"},
	}
	for _, tt := range tests {
		sender, body := splitSender(tt.in)
		if sender != tt.sender || body != tt.body {
			t.Errorf("splitSender(%q) = %q/%q, want %q/%q", tt.in, sender, body, tt.sender, tt.body)
		}
	}
}

func TestBuildSendChannelMsg(t *testing.T) {
	payload, err := BuildSendChannelMsg(3, "hi")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 3, 'h', 'i'}
	if !bytes.Equal(payload, want) {
		t.Errorf("payload = %v, want %v", payload, want)
	}

	if _, err := BuildSendChannelMsg(8, "x"); err == nil {
		t.Error("channel 8 accepted")
	}
}

func f64(v float64) *float64 { return &v }
