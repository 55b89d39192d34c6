package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const deviceIDFileName = "device_id"

// deviceSalt namespaces the machine id hash so the stored identity cannot
// be correlated back to the raw platform id.
const deviceSalt = "clog-device-2024"

// DeviceID returns a stable, opaque identifier for this machine, creating
// and caching it under ~/.clog/device_id on first use.
func DeviceID() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, deviceIDFileName)

	if data, err := os.ReadFile(path); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	raw, err := platformID()
	if err != nil {
		return "", err
	}
	id := hashDeviceID(raw)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", fmt.Errorf("failed to cache device id: %w", err)
	}
	return id, nil
}

// platformID reads a machine-level identifier: /etc/machine-id on Linux,
// the IOPlatformUUID on macOS, a random value elsewhere.
func platformID() (string, error) {
	switch runtime.GOOS {
	case "linux":
		for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			if data, err := os.ReadFile(p); err == nil {
				return strings.TrimSpace(string(data)), nil
			}
		}
	case "darwin":
		out, err := exec.Command("ioreg", "-d2", "-c", "IOPlatformExpertDevice").Output()
		if err == nil {
			for _, line := range strings.Split(string(out), "\n") {
				if !strings.Contains(line, "IOPlatformUUID") {
					continue
				}
				parts := strings.Split(line, `"`)
				if len(parts) >= 4 {
					return parts[3], nil
				}
			}
		}
	}

	// No platform id available; fall back to a random one. Still cached,
	// so the identity stays stable for this installation.
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate fallback device id: %w", err)
	}
	return "fallback-" + hex.EncodeToString(buf), nil
}

func hashDeviceID(raw string) string {
	sum := sha256.Sum256([]byte(deviceSalt + raw))
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:16])
}
