package connectivity

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"net"
	"strconv"
	"time"

	"pure2p/internal/model"
)

const (
	pcpPort           = 5351
	pcpRequestLength  = 60
	pcpResponseMaxLen = 1100
	pcpVersion        = 2
	pcpOpcodeMap      = 1
	pcpResultSuccess  = 0
	pcpLifetimeSecs   = 3600
	pcpMaxAttempts    = 3
)

// pcpResultName names the RFC 6887 §7.4 result codes relevant here;
// anything else is reported by its numeric value.
var pcpResultName = map[byte]string{
	0:  "success",
	1:  "unsupported_version",
	2:  "not_authorized",
	3:  "malformed_request",
	4:  "unsupported_opcode",
	5:  "unsupported_option",
	6:  "malformed_option",
	7:  "network_failure",
	8:  "no_resources",
	9:  "unsupported_protocol",
	10: "user_ex_quota",
	11: "cannot_provide_external",
	12: "address_mismatch",
	13: "excessive_remote_peers",
}

// PCPStrategy sends a single 60-byte MAP request to the gateway's PCP
// port, doubling the timeout across up to three attempts.
type PCPStrategy struct{}

func (PCPStrategy) Name() model.Protocol { return model.ProtocolPCP }

func (PCPStrategy) TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error) {
	gateway, err := discoverGateway()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "discovering gateway for pcp", err)
	}

	conn, err := net.Dial("udp4", net.JoinHostPort(gateway.String(), strconv.Itoa(pcpPort)))
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "dialing pcp gateway", err)
	}
	defer conn.Close()

	req := buildMapRequest(internalPort)

	timeout := 250 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < pcpMaxAttempts; attempt++ {
		conn.SetDeadline(time.Now().Add(timeout))
		if _, err := conn.Write(req); err != nil {
			lastErr = err
			timeout *= 2
			continue
		}

		buf := make([]byte, pcpResponseMaxLen)
		n, err := conn.Read(buf)
		if err != nil {
			lastErr = err
			timeout *= 2
			continue
		}

		mapping, err := parseMapResponse(buf[:n], internalPort)
		if err != nil {
			return nil, err
		}
		return mapping, nil
	}

	return nil, model.NewError(model.KindConnectivity, "pcp request timed out", lastErr)
}

// buildMapRequest encodes an RFC 6887 §11.1 MAP opcode request: 24
// bytes of common header, 36 bytes of MAP-specific payload.
func buildMapRequest(internalPort int) []byte {
	buf := make([]byte, pcpRequestLength)
	buf[0] = pcpVersion
	buf[1] = pcpOpcodeMap
	binary.BigEndian.PutUint32(buf[4:8], pcpLifetimeSecs)
	// buf[8:24] is the client's IPv4-mapped IPv6 address, left zero; the
	// gateway derives it from the UDP source address on NAT44 setups.
	rand.Read(buf[24:36]) // 96-bit MAP mapping nonce
	buf[36] = 6           // IANA protocol number, TCP (the transport server)
	binary.BigEndian.PutUint16(buf[40:42], uint16(internalPort)) // internal port
	binary.BigEndian.PutUint16(buf[42:44], uint16(internalPort)) // suggested external port
	return buf
}

func parseMapResponse(resp []byte, internalPort int) (*model.PortMapping, error) {
	if len(resp) < 60 {
		return nil, model.NewError(model.KindConnectivity, "pcp response too short", nil)
	}
	resultCode := resp[3]
	if resultCode != pcpResultSuccess {
		name, ok := pcpResultName[resultCode]
		if !ok {
			name = "unknown"
		}
		return nil, model.NewError(model.KindConnectivity, "pcp result: "+name, nil)
	}

	lifetime := binary.BigEndian.Uint32(resp[4:8])
	externalPort := binary.BigEndian.Uint16(resp[42:44])

	// The assigned external IPv4-mapped IPv6 address lives in
	// resp[44:60] for a MAP response; the last four bytes hold the IPv4
	// form when the gateway is NAT44.
	ip := net.IP(resp[56:60])

	return &model.PortMapping{
		InternalPort: internalPort,
		ExternalIP:   ip.String(),
		ExternalPort: int(externalPort),
		Protocol:     model.ProtocolPCP,
		LifetimeSecs: int(lifetime),
		AcquiredAt:   model.NowMillis(),
	}, nil
}
