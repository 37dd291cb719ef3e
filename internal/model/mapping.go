package model

// Protocol names the strategy that produced a PortMapping.
type Protocol string

const (
	ProtocolIPv6   Protocol = "ipv6"
	ProtocolPCP    Protocol = "pcp"
	ProtocolNATPMP Protocol = "natpmp"
	ProtocolUPnP   Protocol = "upnp"
	ProtocolDirect Protocol = "direct"
)

// PortMapping is an in-memory record of a successful strategy.
// Lifetime of zero means no mapping needs renewal (IPv6 / Direct).
type PortMapping struct {
	InternalPort int
	ExternalIP   string
	ExternalPort int
	Protocol     Protocol
	LifetimeSecs int
	AcquiredAt   int64 // unix millis
}

// RenewAtMillis is 80% of the granted lifetime past AcquiredAt, the
// renewal point required for PCP/NAT-PMP mappings.
func (m *PortMapping) RenewAtMillis() int64 {
	if m.LifetimeSecs <= 0 {
		return 0
	}
	return m.AcquiredAt + int64(float64(m.LifetimeSecs)*0.8)*1000
}
