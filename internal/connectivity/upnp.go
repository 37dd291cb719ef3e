package connectivity

import (
	"context"
	"net"

	"github.com/huin/goupnp/dcps/internetgateway2"

	"pure2p/internal/model"
)

const (
	upnpLeaseDurationSecs = 3600
	upnpDescription       = "pure2p"
)

// upnpClient is the subset of the generated WANIPConnection1 client
// this strategy depends on, so tests can substitute a fake.
type upnpClient interface {
	GetExternalIPAddress() (string, error)
	AddPortMapping(remoteHost string, externalPort uint16, protocol string, internalPort uint16, internalClient string, enabled bool, description string, leaseDuration uint32) error
	DeletePortMapping(remoteHost string, externalPort uint16, protocol string) error
}

// UPnPStrategy discovers an SSDP IGD device, used when the gateway
// supports neither PCP nor NAT-PMP.
type UPnPStrategy struct{}

func (UPnPStrategy) Name() model.Protocol { return model.ProtocolUPnP }

func discoverUPnPClient() (upnpClient, error) {
	clients, _, err := internetgateway2.NewWANIPConnection1Clients()
	if err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		ppClients, _, err := internetgateway2.NewWANPPPConnection1Clients()
		if err != nil || len(ppClients) == 0 {
			return nil, errGatewayUnknown
		}
		return ppClients[0], nil
	}
	return clients[0], nil
}

func (UPnPStrategy) TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error) {
	client, err := discoverUPnPClient()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "discovering upnp igd", err)
	}

	localIP, err := localLANAddress()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "determining local lan address", err)
	}

	if err := client.AddPortMapping("", uint16(internalPort), "TCP", uint16(internalPort),
		localIP.String(), true, upnpDescription, upnpLeaseDurationSecs); err != nil {
		return nil, model.NewError(model.KindConnectivity, "upnp add port mapping", err)
	}

	externalIP, err := client.GetExternalIPAddress()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "upnp external ip query", err)
	}

	return &model.PortMapping{
		InternalPort: internalPort,
		ExternalIP:   externalIP,
		ExternalPort: internalPort,
		Protocol:     model.ProtocolUPnP,
		LifetimeSecs: upnpLeaseDurationSecs,
		AcquiredAt:   model.NowMillis(),
	}, nil
}

// ReleaseUPnP deletes a previously added mapping; called best-effort
// during shutdown.
func ReleaseUPnP(externalPort int) {
	client, err := discoverUPnPClient()
	if err != nil {
		return
	}
	client.DeletePortMapping("", uint16(externalPort), "TCP")
}

func localLANAddress() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP, nil
}
