package ios

import (
	"regexp"
	"strings"
)

const (
	deviceLabel    = "device: "
	osVersionLabel = "os-version: "
	unknownValue   = "Unknown"
)

// descriptorBody captures the text between '[' and the next ']'.
var descriptorBody = regexp.MustCompile(`(?s)\[(.*?)\]`)

// ParseDeviceList reads a "Supported variant descriptors" value:
//
//	Universal
//	[device: iPhone10,3, os-version: 14.0], and [device: iPad7,1, os-version: 14.0]
//
// An empty value yields nil. Groups without a bracketed body are skipped.
func ParseDeviceList(raw string) []DeviceDescriptor {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return nil
	case Universal.Device:
		return []DeviceDescriptor{Universal}
	}

	// Group bodies contain commas ("iPhone10,3"), so tag each "]," boundary
	// with a marker before splitting.
	marker := newMarker()
	raw = strings.Replace(raw, "and ", "", 1)
	raw = strings.ReplaceAll(raw, "] [", "], [")
	raw = strings.ReplaceAll(raw, "],", "],"+marker)

	chunks := strings.Split(raw, ","+marker+" ")
	devices := make([]DeviceDescriptor, 0, len(chunks))
	for _, chunk := range chunks {
		m := descriptorBody.FindStringSubmatch(chunk)
		if m == nil {
			continue
		}
		devices = append(devices, parseDescriptor(m[1]))
	}
	return devices
}

func parseDescriptor(body string) DeviceDescriptor {
	if strings.TrimSpace(body) == Universal.Device {
		return Universal
	}

	d := DeviceDescriptor{Device: unknownValue, OSVersion: unknownValue}
	var haveDevice, haveOS bool
	for _, attr := range strings.Split(body, ", ") {
		switch {
		case !haveDevice && strings.Contains(attr, deviceLabel):
			d.Device = strings.TrimSpace(strings.ReplaceAll(attr, deviceLabel, ""))
			haveDevice = true
		case !haveOS && strings.Contains(attr, osVersionLabel):
			d.OSVersion = strings.TrimSpace(strings.ReplaceAll(attr, osVersionLabel, ""))
			haveOS = true
		}
	}
	return d
}
