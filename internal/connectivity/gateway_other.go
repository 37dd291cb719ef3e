//go:build !linux

package connectivity

import (
	"bufio"
	"net"
	"os/exec"
	"runtime"
	"strings"

	"pure2p/internal/model"
)

// discoverGateway shells out to the platform route table tool (spec
// §4.5: "route print" on Windows, "netstat -rn" on macOS/BSD) since
// neither has a /proc filesystem to read directly.
func discoverGateway() (net.IP, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("route", "print", "-4", "0.0.0.0")
	default:
		cmd = exec.Command("netstat", "-rn", "-f", "inet")
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, model.NewError(model.KindConnectivity, "running route discovery command", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if runtime.GOOS == "windows" {
			if len(fields) >= 3 && fields[0] == "0.0.0.0" && fields[1] == "0.0.0.0" {
				if ip := net.ParseIP(fields[2]); ip != nil {
					return ip, nil
				}
			}
			continue
		}
		if fields[0] == "default" && len(fields) >= 2 {
			if ip := net.ParseIP(fields[1]); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, errGatewayUnknown
}
