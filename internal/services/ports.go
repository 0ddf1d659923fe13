package services

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// NetProbe detects bound ports by dialing them and resolves the owning
// process from the OS connection table.
type NetProbe struct {
	Host    string
	Timeout time.Duration
}

// NewNetProbe returns a probe against the loopback interface.
func NewNetProbe() *NetProbe {
	return &NetProbe{Host: "127.0.0.1", Timeout: 500 * time.Millisecond}
}

// Probe implements PortProbe.
func (p *NetProbe) Probe(ctx context.Context, port int) (bool, string) {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(p.Host, strconv.Itoa(port)))
	if err != nil {
		return false, ""
	}
	_ = conn.Close()

	owner := PortOwner(ctx, port)
	logging.Debug("ServiceLifecycle", "Port %d in use by %s", port, owner)
	return true, owner
}

// PortOwner returns "name (pid)" for the process listening on port, or
// "N/A" when it cannot be determined.
func PortOwner(ctx context.Context, port int) string {
	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		logging.Debug("ServiceLifecycle", "Cannot list connections: %v", err)
		return "N/A"
	}

	for _, c := range conns {
		if c.Status != "LISTEN" || c.Laddr.Port != uint32(port) || c.Pid <= 0 {
			continue
		}
		proc, err := process.NewProcessWithContext(ctx, c.Pid)
		if err != nil {
			return fmt.Sprintf("N/A (%d)", c.Pid)
		}
		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			return fmt.Sprintf("N/A (%d)", c.Pid)
		}
		return fmt.Sprintf("%s (%d)", name, c.Pid)
	}
	return "N/A"
}
