// Package report renders scan progress and results for a terminal.
//
// A Console is not safe for concurrent use. The CLI writes the banner before
// the scan starts, open-port lines from the scanner's OnResult callback (one
// goroutine), and the summary after Scan returns, so there is only ever one
// writer.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/marcuoli/go-portscan/pkg/portscan"
)

// TimeFormat is the timestamp layout used in the banner and summary.
const TimeFormat = "2006-01-02 15:04:05"

const ruleWidth = 60

// Console writes human-readable scan output to W.
type Console struct {
	W io.Writer
	// Now is used for timestamps. Nil selects time.Now.
	Now func() time.Time
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{W: w}
}

func (c *Console) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Console) rule() {
	fmt.Fprintln(c.W, strings.Repeat("=", ruleWidth))
}

// Header describes a scan about to start.
type Header struct {
	Target  portscan.Target
	Range   portscan.PortRange
	Workers int
	Timeout time.Duration
}

// Banner prints the scan header.
func (c *Console) Banner(h Header) {
	c.rule()
	fmt.Fprintf(c.W, "[*] Target: %s (%s)\n", h.Target.Host, h.Target.Addr)
	if info := h.Target.Info; info != nil {
		if info.Hostname != "" {
			fmt.Fprintf(c.W, "[*] Hostname: %s\n", info.Hostname)
		}
		if info.MAC != "" {
			if info.Vendor != "" {
				fmt.Fprintf(c.W, "[*] MAC: %s (%s)\n", info.MAC, info.Vendor)
			} else {
				fmt.Fprintf(c.W, "[*] MAC: %s\n", info.MAC)
			}
		}
	}
	fmt.Fprintf(c.W, "[*] Port Range: %s\n", h.Range)
	fmt.Fprintf(c.W, "[*] Workers: %d\n", h.Workers)
	fmt.Fprintf(c.W, "[*] Timeout: %v\n", h.Timeout)
	fmt.Fprintf(c.W, "[*] Started: %s\n", c.now().Format(TimeFormat))
	c.rule()
}

// OpenPort prints one discovery line.
func (c *Console) OpenPort(port uint16) {
	fmt.Fprintf(c.W, "[+] Port %d: OPEN\n", port)
}

// Summary prints the final, sorted result.
func (c *Console) Summary(res *portscan.Result) {
	c.rule()
	if res.Interrupted {
		fmt.Fprintf(c.W, "[!] Scan interrupted: %d of %d ports probed\n", res.Stats.Probed, res.Range.Len())
	}
	if len(res.Open) > 0 {
		fmt.Fprintf(c.W, "[+] Found %d open port(s):\n", len(res.Open))
		for _, p := range res.Open {
			fmt.Fprintf(c.W, "    - Port %d\n", p)
		}
	} else {
		fmt.Fprintln(c.W, "[-] No open ports found")
	}
	if res.Stats.Errors > 0 {
		fmt.Fprintf(c.W, "[!] %d port(s) could not be probed\n", res.Stats.Errors)
	}
	fmt.Fprintf(c.W, "[*] Scan ID: %s\n", res.ID)
	fmt.Fprintf(c.W, "[*] Completed: %s (%s)\n", c.now().Format(TimeFormat), res.Duration().Round(time.Millisecond))
	c.rule()
}
