package connectivity

import (
	"context"
	"net"

	"pure2p/internal/model"
)

// publicIPv6Probe is a well-known address used only to force the
// kernel to pick a global-unicast source address; no traffic is ever
// sent through it.
const publicIPv6Probe = "[2001:4860:4860::8888]:53"

// IPv6Strategy is the first ladder rung: if the OS can route outbound
// over global IPv6, that address is directly reachable and no mapping
// or lifetime tracking is needed.
type IPv6Strategy struct{}

func (IPv6Strategy) Name() model.Protocol { return model.ProtocolIPv6 }

func (IPv6Strategy) TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error) {
	conn, err := net.Dial("udp6", publicIPv6Probe)
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "probing ipv6 route", err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, model.NewError(model.KindConnectivity, "unexpected local address type", nil)
	}
	if !isGlobalUnicastV6(local.IP) {
		return nil, model.NewError(model.KindConnectivity, "no global unicast ipv6 source address", nil)
	}

	return &model.PortMapping{
		InternalPort: internalPort,
		ExternalIP:   local.IP.String(),
		ExternalPort: internalPort,
		Protocol:     model.ProtocolIPv6,
		LifetimeSecs: 0,
		AcquiredAt:   model.NowMillis(),
	}, nil
}
