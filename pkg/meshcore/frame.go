// Package meshcore implements the companion-radio serial protocol: a
// binary frame codec over the serial byte stream and a link layer that
// turns decoded frames into channel text messages.
package meshcore

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Direction selects the start marker of a frame on the serial wire.
type Direction byte

const (
	// DirToRadio marks host → device frames.
	DirToRadio Direction = 0x3C
	// DirFromRadio marks device → host frames.
	DirFromRadio Direction = 0x3E
)

// Command codes (host → device).
const (
	CmdAppStart       byte = 1
	CmdSendChannelMsg byte = 3
	CmdGetDeviceTime  byte = 5
	CmdGetNextMessage byte = 10
)

// Response and push codes (device → host).
const (
	RespDeviceTime     byte = 5
	RespChannelMsg     byte = 8
	RespNoMoreMessages byte = 10
	RespChannelMsgV3   byte = 17
	PushMsgWaiting     byte = 0x83
	PushChannelMsg     byte = 0x88
)

// MaxPayloadSize is the largest frame payload the firmware produces. A
// length field implying more than this means the stream is corrupt.
const MaxPayloadSize = 300

// MaxChannelIdx is the highest valid channel index.
const MaxChannelIdx = 7

// ProtocolVersionSNR is the first firmware revision whose channel-message
// responses carry an SNR reading.
const ProtocolVersionSNR = 3

var (
	ErrFrameTooLarge = errors.New("meshcore: frame payload exceeds maximum")
	ErrCorruptFrame  = errors.New("meshcore: corrupt frame")
)

// Frame is one complete unit of the serial protocol: a direction marker,
// a command or response code, and a payload of 0–300 bytes.
type Frame struct {
	Dir     Direction
	Code    byte
	Payload []byte
}

// Encode serializes a frame: marker, little-endian body length, code,
// payload. The body length counts the code byte plus the payload.
func Encode(f Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	out := make([]byte, 0, 4+len(f.Payload))
	out = append(out, byte(f.Dir))
	out = binary.LittleEndian.AppendUint16(out, uint16(1+len(f.Payload)))
	out = append(out, f.Code)
	out = append(out, f.Payload...)
	return out, nil
}

// Decoder converts a raw byte stream into complete frames. Incomplete
// frames stay buffered; corrupt length fields cause a resynchronization
// scan for the next start marker instead of failing the stream.
type Decoder struct {
	dir Direction
	buf []byte
}

// NewDecoder returns a decoder for frames travelling in the given
// direction (the host decodes DirFromRadio).
func NewDecoder(dir Direction) *Decoder {
	return &Decoder{dir: dir}
}

// Feed appends bytes from the stream and returns every complete frame now
// available. Bytes between frames that are not a start marker are noise
// and are skipped.
func (d *Decoder) Feed(p []byte) []Frame {
	d.buf = append(d.buf, p...)

	var frames []Frame
	for {
		// Discard garbage up to the next start marker.
		i := 0
		for i < len(d.buf) && d.buf[i] != byte(d.dir) {
			i++
		}
		d.buf = d.buf[i:]

		if len(d.buf) < 3 {
			return frames
		}
		bodyLen := int(binary.LittleEndian.Uint16(d.buf[1:3]))
		if bodyLen == 0 || bodyLen > MaxPayloadSize+1 {
			// Corrupt length: drop this marker byte and resync.
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < 3+bodyLen {
			return frames
		}

		payload := make([]byte, bodyLen-1)
		copy(payload, d.buf[4:3+bodyLen])
		frames = append(frames, Frame{
			Dir:     d.dir,
			Code:    d.buf[3],
			Payload: payload,
		})
		d.buf = d.buf[3+bodyLen:]
	}
}

// Pending reports how many bytes are buffered awaiting a complete frame.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

// ChannelMessage is the decoded body of a channel-message response or
// push frame.
type ChannelMessage struct {
	ChannelIdx      int
	PathLen         int
	TxtType         int
	SenderTimestamp uint32
	// SNR in dB, nil for legacy frames or readings outside the sane range.
	SNR    *float64
	Sender string
	Text   string
}

const (
	legacyHeaderLen = 7  // chan, pathLen, txtType, timestamp(4)
	v3HeaderLen     = 10 // chan, pathLen, txtType, snr, reserved(2), timestamp(4)
)

// snrSaneMin/Max bound plausible SNR readings; values outside are
// telemetry noise and dropped without rejecting the message.
const (
	snrSaneMin = 20.0
	snrSaneMax = 60.0
)

// ParseChannelMessage decodes the payload of a RespChannelMsg,
// RespChannelMsgV3 or PushChannelMsg frame. The code selects the header
// shape: the v3 revision inserts an SNR quarter-dB byte and two reserved
// bytes after the text type.
func ParseChannelMessage(code byte, payload []byte) (*ChannelMessage, error) {
	headerLen := legacyHeaderLen
	if code == RespChannelMsgV3 {
		headerLen = v3HeaderLen
	}
	if len(payload) < headerLen {
		return nil, fmt.Errorf("%w: channel message payload %d bytes, need %d", ErrCorruptFrame, len(payload), headerLen)
	}

	msg := &ChannelMessage{
		ChannelIdx: int(payload[0]),
		PathLen:    int(payload[1]),
		TxtType:    int(payload[2]),
	}
	if msg.ChannelIdx > MaxChannelIdx {
		return nil, fmt.Errorf("%w: channel index %d out of range", ErrCorruptFrame, msg.ChannelIdx)
	}

	rest := payload[3:]
	if code == RespChannelMsgV3 {
		snr := float64(rest[0]) / 4.0
		if snr >= snrSaneMin && snr <= snrSaneMax {
			msg.SNR = &snr
		}
		rest = rest[3:] // snr byte plus two reserved bytes
	}
	msg.SenderTimestamp = binary.LittleEndian.Uint32(rest[:4])

	text := string(rest[4:])
	msg.Sender, msg.Text = splitSender(text)
	return msg, nil
}

// splitSender separates the firmware's "Name: text" convention. Messages
// without the prefix keep their full text under an unknown sender.
func splitSender(text string) (sender, body string) {
	for i := 0; i < len(text); i++ {
		if text[i] == ':' {
			if i+1 < len(text) && text[i+1] == ' ' {
				return text[:i], text[i+2:]
			}
			return text[:i], text[i+1:]
		}
	}
	return "unknown", text
}

// BuildSendChannelMsg builds the payload for CmdSendChannelMsg.
func BuildSendChannelMsg(channelIdx int, text string) ([]byte, error) {
	if channelIdx < 0 || channelIdx > MaxChannelIdx {
		return nil, fmt.Errorf("meshcore: channel index %d out of range", channelIdx)
	}
	payload := make([]byte, 0, 2+len(text))
	payload = append(payload, 0) // plain text type
	payload = append(payload, byte(channelIdx))
	payload = append(payload, text...)
	return payload, nil
}

// BuildAppStart builds the payload for CmdAppStart: the protocol revision
// the host speaks followed by the application name.
func BuildAppStart(version byte, appName string) []byte {
	payload := make([]byte, 0, 1+len(appName))
	payload = append(payload, version)
	payload = append(payload, appName...)
	return payload
}
