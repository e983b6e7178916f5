package meshcore

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// wellKnownPorts is the ordered probe list for radio auto-detection.
var wellKnownPorts = []string{
	"/dev/ttyUSB0",
	"/dev/ttyUSB1",
	"/dev/ttyACM0",
	"/dev/ttyACM1",
	"/dev/serial0",
}

// ValidBaudRates lists the rates companion firmwares ship with.
var ValidBaudRates = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
	230400: true,
}

const probeTimeout = 2 * time.Second

// DetectPort probes the well-known device paths with a get-device-time
// command and returns the first path that answers with a valid frame.
func DetectPort(baud int) (string, error) {
	for _, path := range wellKnownPorts {
		if probePort(path, baud) {
			return path, nil
		}
	}
	return "", fmt.Errorf("meshcore: no radio found on %v", wellKnownPorts)
}

func probePort(path string, baud int) bool {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return false
	}
	defer port.Close()

	if err := port.SetReadTimeout(probeTimeout); err != nil {
		return false
	}

	raw, err := Encode(Frame{Dir: DirToRadio, Code: CmdGetDeviceTime})
	if err != nil {
		return false
	}
	if _, err := port.Write(raw); err != nil {
		return false
	}

	dec := NewDecoder(DirFromRadio)
	buf := make([]byte, 64)
	deadline := time.Now().Add(probeTimeout)
	for time.Now().Before(deadline) {
		n, err := port.Read(buf)
		if err != nil {
			return false
		}
		if n == 0 {
			// Read timeout elapsed without data.
			return false
		}
		if frames := dec.Feed(buf[:n]); len(frames) > 0 {
			return true
		}
	}
	return false
}
