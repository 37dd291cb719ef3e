//go:build linux

package connectivity

import (
	"bufio"
	"encoding/binary"
	"net"
	"os"
	"strconv"

	"pure2p/internal/model"
)

// discoverGateway reads /proc/net/route for the default route (spec
// §4.5: gateway discovery is platform-specific; no library in the
// ecosystem covers routing-table introspection). The destination field
// is 00000000 for the default route; the gateway field is a
// little-endian hex-encoded IPv4 address.
func discoverGateway() (net.IP, error) {
	f, err := os.Open("/proc/net/route")
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "opening /proc/net/route", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Scan() // header line

	for scanner.Scan() {
		fields := splitRouteLine(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		dest, gateway := fields[1], fields[2]
		if dest != "00000000" {
			continue
		}
		ip, err := parseHexGateway(gateway)
		if err != nil {
			continue
		}
		return ip, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, model.NewError(model.KindConnectivity, "scanning /proc/net/route", err)
	}
	return nil, errGatewayUnknown
}

func splitRouteLine(line string) []string {
	var fields []string
	var cur []byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\t' || c == ' ' {
			if len(cur) > 0 {
				fields = append(fields, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		fields = append(fields, string(cur))
	}
	return fields
}

func parseHexGateway(hex string) (net.IP, error) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return net.IPv4(b[0], b[1], b[2], b[3]), nil
}
