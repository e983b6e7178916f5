package meshcore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"mesh-adventure-be/internal/pkg/logger"
)

// Config controls how the link opens the radio.
type Config struct {
	// Port is the serial device path; empty with AutoDetect probes the
	// well-known paths instead.
	Port       string
	Baud       int
	AutoDetect bool
	// AppName is announced to the firmware in the app-start handshake.
	AppName string
}

const (
	readChunkSize    = 256
	readPollTimeout  = 500 * time.Millisecond
	messageQueueSize = 32
	backoffInitial   = 1 * time.Second
	backoffMax       = 30 * time.Second
	interFrameDelay  = 50 * time.Millisecond
)

// Link owns the serial connection to the radio. It runs the read loop,
// translates message-waiting pushes into fetch commands, and surfaces
// decoded channel messages on Messages. Serial failures reconnect with
// capped exponential backoff; they never take the process down.
type Link struct {
	cfg Config
	log logger.ILogger

	mu   sync.Mutex // guards port and writes
	port serial.Port
	path string

	messages chan Message
	done     chan struct{}
	wg       sync.WaitGroup

	// protocolVersion is reported by the firmware in the app-start
	// response; revisions >= ProtocolVersionSNR send v3 channel messages.
	protocolVersion int
}

// Open connects to the radio (detecting the device path if needed),
// performs the app-start handshake, and starts the read loop.
func Open(cfg Config, log logger.ILogger) (*Link, error) {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if !ValidBaudRates[cfg.Baud] {
		return nil, fmt.Errorf("meshcore: unsupported baud rate %d", cfg.Baud)
	}
	if cfg.AppName == "" {
		cfg.AppName = "ADVBOT"
	}

	l := &Link{
		cfg:      cfg,
		log:      log,
		messages: make(chan Message, messageQueueSize),
		done:     make(chan struct{}),
	}
	if err := l.connect(); err != nil {
		return nil, err
	}

	l.wg.Add(1)
	go l.readLoop()
	return l, nil
}

// Messages is the stream of inbound channel messages. It is closed when
// the link shuts down.
func (l *Link) Messages() <-chan Message {
	return l.messages
}

// ProtocolVersion reports the firmware protocol revision negotiated at
// app start; zero means the firmware never answered the handshake.
func (l *Link) ProtocolVersion() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.protocolVersion
}

// Send transmits a channel text message. The text must already fit the
// radio's payload budget; chunking happens upstream.
func (l *Link) Send(ctx context.Context, channelIdx int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := BuildSendChannelMsg(channelIdx, text)
	if err != nil {
		return err
	}
	return l.writeFrame(Frame{Dir: DirToRadio, Code: CmdSendChannelMsg, Payload: payload})
}

// Close stops the read loop and closes the device.
func (l *Link) Close() error {
	select {
	case <-l.done:
		return nil
	default:
	}
	close(l.done)

	l.mu.Lock()
	if l.port != nil {
		l.port.Close()
		l.port = nil
	}
	l.mu.Unlock()

	l.wg.Wait()
	close(l.messages)
	return nil
}

func (l *Link) connect() error {
	path := l.cfg.Port
	if path == "" {
		if !l.cfg.AutoDetect {
			return fmt.Errorf("meshcore: no serial port configured and auto-detect disabled")
		}
		detected, err := DetectPort(l.cfg.Baud)
		if err != nil {
			return err
		}
		path = detected
		l.log.Info("meshcore", "auto-detected radio", map[string]interface{}{"port": path})
	}

	port, err := serial.Open(path, &serial.Mode{BaudRate: l.cfg.Baud})
	if err != nil {
		return fmt.Errorf("meshcore: open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		port.Close()
		return fmt.Errorf("meshcore: set read timeout: %w", err)
	}

	l.mu.Lock()
	l.port = port
	l.path = path
	l.mu.Unlock()

	if err := l.appStart(); err != nil {
		l.log.Warn("meshcore", "app start handshake failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// appStart announces the host to the firmware and records the protocol
// revision from the response payload's first byte.
func (l *Link) appStart() error {
	payload := BuildAppStart(ProtocolVersionSNR, l.cfg.AppName)
	return l.writeFrame(Frame{Dir: DirToRadio, Code: CmdAppStart, Payload: payload})
}

func (l *Link) writeFrame(f Frame) error {
	raw, err := Encode(f)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return fmt.Errorf("meshcore: link not connected")
	}
	if _, err := l.port.Write(raw); err != nil {
		return fmt.Errorf("meshcore: write: %w", err)
	}
	return nil
}

func (l *Link) readLoop() {
	defer l.wg.Done()

	dec := NewDecoder(DirFromRadio)
	buf := make([]byte, readChunkSize)

	for {
		select {
		case <-l.done:
			return
		default:
		}

		l.mu.Lock()
		port := l.port
		l.mu.Unlock()
		if port == nil {
			if !l.reconnect() {
				return
			}
			continue
		}

		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			l.log.Error("meshcore", "serial read failed", map[string]interface{}{
				"port":  l.path,
				"error": err.Error(),
			})
			l.dropPort()
			if !l.reconnect() {
				return
			}
			dec = NewDecoder(DirFromRadio)
			continue
		}
		if n == 0 {
			continue // read timeout tick, lets us notice shutdown
		}

		for _, frame := range dec.Feed(buf[:n]) {
			l.handleFrame(frame)
		}
	}
}

func (l *Link) handleFrame(f Frame) {
	switch f.Code {
	case PushMsgWaiting:
		// Pull protocol: the push only signals that a message is queued on
		// the device; fetch it explicitly.
		time.Sleep(interFrameDelay)
		if err := l.writeFrame(Frame{Dir: DirToRadio, Code: CmdGetNextMessage}); err != nil {
			l.log.Warn("meshcore", "fetch next message failed", map[string]interface{}{"error": err.Error()})
		}

	case RespChannelMsg, RespChannelMsgV3, PushChannelMsg:
		msg, err := ParseChannelMessage(f.Code, f.Payload)
		if err != nil {
			// One bad message, not a dead link.
			l.log.Warn("meshcore", "discarding corrupt channel message", map[string]interface{}{"error": err.Error()})
			return
		}
		l.deliver(msg)
		// There may be more queued behind this one.
		if err := l.writeFrame(Frame{Dir: DirToRadio, Code: CmdGetNextMessage}); err != nil {
			l.log.Warn("meshcore", "fetch next message failed", map[string]interface{}{"error": err.Error()})
		}

	case RespNoMoreMessages:
		// Queue drained.

	case RespDeviceTime:
		// Probe response; nothing to do mid-session.

	default:
		// The first unrecognized response after app start is the handshake
		// reply; its leading byte is the firmware protocol revision.
		if l.protocolVersionUnset() && len(f.Payload) > 0 {
			l.recordProtocolVersion(f.Payload)
		}
	}
}

func (l *Link) protocolVersionUnset() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.protocolVersion == 0
}

func (l *Link) recordProtocolVersion(payload []byte) {
	if len(payload) == 0 {
		return
	}
	l.mu.Lock()
	l.protocolVersion = int(payload[0])
	l.mu.Unlock()
	l.log.Info("meshcore", "radio protocol negotiated", map[string]interface{}{
		"version": int(payload[0]),
		"snr":     int(payload[0]) >= ProtocolVersionSNR,
	})
}

func (l *Link) deliver(cm *ChannelMessage) {
	msg := Message{
		Sender:     cm.Sender,
		Content:    cm.Text,
		ChannelIdx: cm.ChannelIdx,
		Timestamp:  time.Now(),
		SNR:        cm.SNR,
	}
	select {
	case l.messages <- msg:
	default:
		l.log.Warn("meshcore", "inbound queue full, dropping message", map[string]interface{}{
			"sender":  msg.Sender,
			"channel": msg.ChannelIdx,
		})
	}
}

func (l *Link) dropPort() {
	l.mu.Lock()
	if l.port != nil {
		l.port.Close()
		l.port = nil
	}
	l.mu.Unlock()
}

// reconnect retries opening the device with capped exponential backoff.
// Returns false only when the link is shutting down.
func (l *Link) reconnect() bool {
	delay := backoffInitial
	for {
		select {
		case <-l.done:
			return false
		case <-time.After(delay):
		}

		if err := l.connect(); err == nil {
			l.log.Info("meshcore", "radio reconnected", map[string]interface{}{"port": l.path})
			return true
		} else {
			l.log.Warn("meshcore", "reconnect failed", map[string]interface{}{
				"error":      err.Error(),
				"retry_in_s": (delay * 2).Seconds(),
			})
		}

		delay *= 2
		if delay > backoffMax {
			delay = backoffMax
		}
	}
}
