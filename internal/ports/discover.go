package ports

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/s-retlaw/devc/internal/provider"
)

// listenState is the /proc/net/tcp `st` field value for TCP_LISTEN.
const listenState = "0A"

// Discover runs `cat /proc/net/tcp /proc/net/tcp6` inside the container and
// returns every LISTEN-state entry, per §4.7 "Discovery". forwardPorts and
// appPort list ports that should be returned even when bound to loopback
// only; every other loopback-only bind is filtered out, since nothing on
// the host can reach it through a tunnel that isn't there yet.
func Discover(ctx context.Context, prov *provider.Provider, containerName string, forwardPorts []int, appPort int) ([]Entry, error) {
	res, err := prov.Exec(ctx, containerName, []string{"cat", "/proc/net/tcp", "/proc/net/tcp6"}, "", nil, false, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	explicit := make(map[int]bool, len(forwardPorts)+1)
	for _, p := range forwardPorts {
		explicit[p] = true
	}
	if appPort != 0 {
		explicit[appPort] = true
	}

	seen := make(map[int]bool)
	var entries []Entry
	for _, line := range strings.Split(res.Stdout, "\n") {
		entry, ip, ok := parseProcNetLine(line)
		if !ok {
			continue
		}
		if seen[entry.ContainerPort] {
			continue
		}
		if ip.IsLoopback() && !explicit[entry.ContainerPort] {
			continue
		}
		seen[entry.ContainerPort] = true
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseProcNetLine parses one data row of /proc/net/tcp{,6} (the header row
// and anything malformed is rejected via ok=false).
func parseProcNetLine(line string) (entry Entry, ip net.IP, ok bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) < 4 {
		return Entry{}, nil, false
	}
	if !strings.HasSuffix(fields[0], ":") {
		return Entry{}, nil, false
	}
	local := fields[1]
	state := fields[3]
	if !strings.EqualFold(state, listenState) {
		return Entry{}, nil, false
	}

	parts := strings.SplitN(local, ":", 2)
	if len(parts) != 2 {
		return Entry{}, nil, false
	}
	addr, err := parseHexAddr(parts[0])
	if err != nil {
		return Entry{}, nil, false
	}
	portNum, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return Entry{}, nil, false
	}

	entry = Entry{
		ContainerPort: int(portNum),
		Protocol:      "tcp",
		State:         StateListen,
	}
	return entry, addr, true
}

// parseHexAddr decodes the little-endian-per-32-bit-word hex address field
// of /proc/net/tcp (4 bytes) or /proc/net/tcp6 (16 bytes).
func parseHexAddr(hexStr string) (net.IP, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, err
	}
	switch len(raw) {
	case 4:
		return net.IPv4(raw[3], raw[2], raw[1], raw[0]), nil
	case 16:
		ip := make(net.IP, 16)
		for word := 0; word < 4; word++ {
			for b := 0; b < 4; b++ {
				ip[word*4+b] = raw[word*4+(3-b)]
			}
		}
		return ip, nil
	default:
		return nil, fmt.Errorf("unexpected address length %d", len(raw))
	}
}

// ReadAttributes resolves the configured portsAttributes entry for a
// discovered port, defaulting hostPort to the container port and
// onAutoForward to "notify" per §4.7 when nothing more specific is set.
func ReadAttributes(attrs map[string]Attributes, containerPort int) Attributes {
	if a, ok := attrs[strconv.Itoa(containerPort)]; ok {
		if a.HostPort == 0 {
			a.HostPort = containerPort
		}
		if a.OnAutoForward == "" {
			a.OnAutoForward = AutoForwardNotify
		}
		return a
	}
	return Attributes{HostPort: containerPort, OnAutoForward: AutoForwardNotify}
}
