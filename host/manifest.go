package host

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Field length bounds from spec.md §6.
const (
	maxNameLen          = 64
	maxTypeLen          = 16
	maxFormatLen        = 16
	maxInterfaceNameLen = 16
)

// Manifest is the parsed form of a per-daemon .proc file: the only
// information about a daemon known before its interpreter ever runs a
// form. Per spec.md §4.6 (recovered from original_source/), this is kept
// as its own value distinct from a live Daemon so the router can reason
// about declared interfaces before a script has executed anything.
type Manifest struct {
	Name       string
	Filename   string
	Interfaces []ManifestInterface
}

// ManifestInterface is one interface: line, still in the 0/1 wire form.
type ManifestInterface struct {
	Name      string
	Type      string
	Format    string
	Direction bool // 0=IN(false), 1=OUT(true)
	Trigger   bool
}

// ParseManifest reads the line-oriented .proc format described in
// spec.md §6: name:, filename:, and any number of repeated interface:
// lines. Unknown lines are silently ignored, matching the spec.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		rest = strings.TrimSpace(rest)
		switch key {
		case "name":
			m.Name = truncate(rest, maxNameLen)
		case "filename":
			m.Filename = rest
		case "interface":
			iface, ok := parseInterfaceLine(rest)
			if ok {
				m.Interfaces = append(m.Interfaces, iface)
			}
		}
	}
	return m, scanner.Err()
}

func parseInterfaceLine(rest string) (ManifestInterface, bool) {
	fields := strings.Split(rest, ",")
	if len(fields) != 5 {
		return ManifestInterface{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	dir, err := strconv.Atoi(fields[3])
	if err != nil {
		return ManifestInterface{}, false
	}
	trig, err := strconv.Atoi(fields[4])
	if err != nil {
		return ManifestInterface{}, false
	}
	return ManifestInterface{
		Name:      truncate(fields[0], maxInterfaceNameLen),
		Type:      truncate(fields[1], maxTypeLen),
		Format:    truncate(fields[2], maxFormatLen),
		Direction: dir != 0,
		Trigger:   trig != 0,
	}, true
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
