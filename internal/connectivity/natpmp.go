package connectivity

import (
	"context"
	"net"

	natpmp "github.com/jackpal/go-nat-pmp"

	"pure2p/internal/model"
)

const natPMPLifetimeSecs = 3600

// NATPMPStrategy falls back to the gateway's NAT-PMP service (Apple's
// predecessor to PCP) when PCP itself is unsupported.
type NATPMPStrategy struct{}

func (NATPMPStrategy) Name() model.Protocol { return model.ProtocolNATPMP }

func (NATPMPStrategy) TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error) {
	gateway, err := discoverGateway()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "discovering gateway for nat-pmp", err)
	}

	client := natpmp.NewClient(gateway)

	extAddr, err := client.GetExternalAddress()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "nat-pmp external address query", err)
	}

	result, err := client.AddPortMapping("tcp", internalPort, internalPort, natPMPLifetimeSecs)
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "nat-pmp add port mapping", err)
	}

	ip := net.IPv4(extAddr.ExternalIPAddress[0], extAddr.ExternalIPAddress[1],
		extAddr.ExternalIPAddress[2], extAddr.ExternalIPAddress[3])

	return &model.PortMapping{
		InternalPort: internalPort,
		ExternalIP:   ip.String(),
		ExternalPort: int(result.MappedExternalPort),
		Protocol:     model.ProtocolNATPMP,
		LifetimeSecs: int(result.PortMappingLifetimeInSeconds),
		AcquiredAt:   model.NowMillis(),
	}, nil
}

// renewNATPMP is invoked by the mapping manager at 80% of the granted
// lifetime.
func renewNATPMP(gateway net.IP, internalPort, externalPort int) (*model.PortMapping, error) {
	client := natpmp.NewClient(gateway)
	result, err := client.AddPortMapping("tcp", internalPort, externalPort, natPMPLifetimeSecs)
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "nat-pmp renew port mapping", err)
	}
	return &model.PortMapping{
		InternalPort: internalPort,
		ExternalPort: int(result.MappedExternalPort),
		Protocol:     model.ProtocolNATPMP,
		LifetimeSecs: int(result.PortMappingLifetimeInSeconds),
		AcquiredAt:   model.NowMillis(),
	}, nil
}
