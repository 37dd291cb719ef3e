// Package connectivity implements the strategy ladder: IPv6 probe,
// PCP, NAT-PMP, UPnP, then an HTTP-IP fallback, each tried in order
// until one reports a usable external endpoint.
package connectivity

import (
	"context"
	"errors"
	"net"

	"pure2p/internal/model"
)

var errGatewayUnknown = errors.New("gateway address could not be determined")

// Strategy is the shared contract every ladder rung implements: a flat
// table of interchangeable strategies dispatched in order, rather than
// an inheritance hierarchy.
type Strategy interface {
	Name() model.Protocol
	TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error)
}

// cgnatBlock is 100.64.0.0/10, the shared-address space carriers use
// for carrier-grade NAT. An address in this range is flagged as an
// advisory on the attempt; the mapping itself is still kept.
var cgnatBlock = &net.IPNet{
	IP:   net.IPv4(100, 64, 0, 0).To4(),
	Mask: net.CIDRMask(10, 32),
}

// IsCGNAT reports whether ip falls inside the carrier-grade NAT block.
func IsCGNAT(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	return cgnatBlock.Contains(v4)
}

// isGlobalUnicastV6 reports whether ip is usable as a public IPv6
// source address: not link-local (fe80::/10), not unique-local
// (fc00::/7).
func isGlobalUnicastV6(ip net.IP) bool {
	if ip.To4() != nil {
		return false
	}
	if ip.IsLinkLocalUnicast() {
		return false
	}
	if len(ip) == net.IPv6len && ip[0]&0xfe == 0xfc {
		return false
	}
	return ip.IsGlobalUnicast()
}

// Establish runs the strategy ladder in order and returns the first
// strategy's mapping that succeeds. A CGNAT external address is
// advisory, not a failure: the mapping is kept and the attempt is
// flagged, rather than falling through to the next rung. Every
// attempt, success or failure, is returned in attempts for
// diagnostics.
func Establish(ctx context.Context, internalPort int, strategies []Strategy) (*model.PortMapping, []Attempt) {
	var attempts []Attempt

	for _, s := range strategies {
		mapping, err := s.TryMap(ctx, internalPort)
		if err != nil {
			attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err})
			continue
		}
		cgnat := false
		if ip := net.ParseIP(mapping.ExternalIP); ip != nil && IsCGNAT(ip) {
			cgnat = true
		}
		attempts = append(attempts, Attempt{Strategy: s.Name(), Mapping: mapping, CGNAT: cgnat})
		return mapping, attempts
	}
	return nil, attempts
}

// Attempt records one rung of the ladder for diagnostics output.
type Attempt struct {
	Strategy model.Protocol
	Mapping  *model.PortMapping
	CGNAT    bool
	Err      error
}

// DiscoverGateway exposes the platform-specific default-gateway lookup
// to callers outside this package (the mapping manager needs it to
// drive PCP/NAT-PMP renewal after the ladder has already run once).
func DiscoverGateway() (net.IP, error) {
	return discoverGateway()
}
