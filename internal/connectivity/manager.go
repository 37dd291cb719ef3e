package connectivity

import (
	"context"
	"net"
	"time"

	"github.com/labstack/gommon/log"

	"pure2p/internal/model"
)

// MappingManager owns a live PortMapping and renews it at 80% of its
// granted lifetime. IPv6 and Direct mappings have LifetimeSecs == 0
// and the manager is a no-op for them.
type MappingManager struct {
	mapping *model.PortMapping
	gateway net.IP

	stop chan struct{}
	done chan struct{}
}

func NewMappingManager(mapping *model.PortMapping, gateway net.IP) *MappingManager {
	return &MappingManager{
		mapping: mapping,
		gateway: gateway,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run blocks, renewing the mapping as its lifetime approaches expiry,
// until Stop is called or ctx is cancelled.
func (m *MappingManager) Run(ctx context.Context) {
	defer close(m.done)

	if m.mapping.LifetimeSecs <= 0 {
		<-mergeStop(ctx, m.stop)
		return
	}

	for {
		renewAt := m.mapping.RenewAtMillis()
		delay := time.Duration(renewAt-model.NowMillis()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-time.After(delay):
		}

		renewed, err := m.renew()
		if err != nil {
			log.Errorf("connectivity: renewing %s mapping: %v", m.mapping.Protocol, err)
			return
		}
		m.mapping = renewed
	}
}

func (m *MappingManager) renew() (*model.PortMapping, error) {
	switch m.mapping.Protocol {
	case model.ProtocolNATPMP:
		return renewNATPMP(m.gateway, m.mapping.InternalPort, m.mapping.ExternalPort)
	case model.ProtocolPCP:
		return (PCPStrategy{}).TryMap(context.Background(), m.mapping.InternalPort)
	default:
		return m.mapping, nil
	}
}

// Stop ends the renewal loop and, for UPnP mappings, releases the
// mapping best-effort.
func (m *MappingManager) Stop() {
	close(m.stop)
	<-m.done
	if m.mapping.Protocol == model.ProtocolUPnP {
		ReleaseUPnP(m.mapping.ExternalPort)
	}
}

func mergeStop(ctx context.Context, stop <-chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
		case <-stop:
		}
	}()
	return out
}
