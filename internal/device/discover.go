package device

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Info describes an input device listed by the kernel.
type Info struct {
	Name string
	Path string
}

// ProcDevices is the kernel's input device listing.
const ProcDevices = "/proc/bus/input/devices"

// Keyboards lists keyboard-like devices from /proc/bus/input/devices.
func Keyboards() ([]Info, error) {
	f, err := os.Open(ProcDevices)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	return ParseDevices(f, "/dev/input")
}

// ParseDevices parses the /proc/bus/input/devices format. A device counts as
// a keyboard when it has a kbd handler and a large key capability bitmap.
func ParseDevices(r io.Reader, devDir string) ([]Info, error) {
	var devices []Info
	var current Info
	var kbd, manyKeys bool
	flush := func() {
		if kbd && manyKeys && current.Path != "" {
			devices = append(devices, current)
		}
		current, kbd, manyKeys = Info{}, false, false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "N: Name="):
			current.Name = strings.Trim(strings.TrimPrefix(line, "N: Name="), `"`)
		case strings.HasPrefix(line, "H: Handlers="):
			for _, h := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
				switch {
				case h == "kbd":
					kbd = true
				case strings.HasPrefix(h, "event"):
					current.Path = filepath.Join(devDir, h)
				}
			}
		case strings.HasPrefix(line, "B: KEY="):
			// Power buttons and lid switches report a handful of bits.
			manyKeys = len(strings.Fields(strings.TrimPrefix(line, "B: KEY="))) >= 3
		}
	}
	flush()
	return devices, scanner.Err()
}
