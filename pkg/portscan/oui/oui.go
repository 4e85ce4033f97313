// Package oui maps MAC addresses to vendor names using an IEEE OUI database
// file (github.com/klauspost/oui). Lookups fail with ErrNoDatabase until a
// path has been configured with SetDatabase.
package oui

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/oui"
)

// ErrNoDatabase is returned when no OUI database path has been configured.
var ErrNoDatabase = errors.New("no OUI database configured")

// ErrInvalidMAC is returned for addresses that are not 48-bit MACs.
var ErrInvalidMAC = errors.New("invalid MAC address")

// DebugLogger is a callback for debug logging.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Vendor is the registered owner of a MAC prefix.
type Vendor struct {
	Name    string
	Prefix  string
	Country string
}

// registry holds the lazily opened database. A failed open is remembered
// until the path changes.
type registry struct {
	mu   sync.Mutex
	path string
	db   oui.OuiDB
	err  error
}

var reg registry

func (r *registry) open() (oui.OuiDB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" {
		return nil, ErrNoDatabase
	}
	if r.db == nil && r.err == nil {
		debugLog("opening %s", r.path)
		r.db, r.err = oui.OpenStaticFile(r.path)
		if r.err != nil {
			r.err = fmt.Errorf("open OUI database %s: %w", r.path, r.err)
		}
	}
	return r.db, r.err
}

// SetDatabase selects the OUI database file (IEEE oui.txt format). The file
// must exist; it is parsed on first lookup.
func SetDatabase(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("OUI database: %w", err)
	}
	reg.mu.Lock()
	reg.path, reg.db, reg.err = path, nil, nil
	reg.mu.Unlock()
	debugLog("database set to %s", path)
	return nil
}

// DatabasePath returns the configured database path, or "".
func DatabasePath() string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.path
}

// Loaded reports whether the database has been parsed successfully.
func Loaded() bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.db != nil
}

// Lookup returns the vendor owning mac. An unregistered prefix yields
// (nil, nil).
func Lookup(mac string) (*Vendor, error) {
	db, err := reg.open()
	if err != nil {
		return nil, err
	}
	hw, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}

	entry, err := db.Query(hw.String())
	if errors.Is(err, oui.ErrNotFound) {
		debugLog("%s: unregistered prefix", hw)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("OUI query %s: %w", hw, err)
	}
	debugLog("%s -> %s", hw, entry.Manufacturer)
	return &Vendor{Name: entry.Manufacturer, Prefix: entry.Prefix.String(), Country: entry.Country}, nil
}

// ParseMAC accepts the usual separated notations as well as 12 bare hex
// digits.
func ParseMAC(s string) (net.HardwareAddr, error) {
	s = strings.TrimSpace(s)
	if len(s) == 12 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
		}
		return net.HardwareAddr(b), nil
	}
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	return hw, nil
}

// NormalizeMAC returns mac in lower-case colon form, or "" if it does not parse.
func NormalizeMAC(mac string) string {
	hw, err := ParseMAC(mac)
	if err != nil {
		return ""
	}
	return hw.String()
}
