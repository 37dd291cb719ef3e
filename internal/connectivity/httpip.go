package connectivity

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"pure2p/internal/model"
)

const httpIPTimeout = 5 * time.Second

// publicIPEchoServices are tried in order until one answers with a
// parseable IPv4 or IPv6 literal.
var publicIPEchoServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://icanhazip.com",
}

// HTTPIPStrategy is the last-resort fallback: no port mapping is
// created, it only confirms the host already has a reachable address.
type HTTPIPStrategy struct {
	Services []string
}

func (HTTPIPStrategy) Name() model.Protocol { return model.ProtocolDirect }

func (s HTTPIPStrategy) TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error) {
	services := s.Services
	if services == nil {
		services = publicIPEchoServices
	}

	client := &http.Client{Timeout: httpIPTimeout}
	var lastErr error
	for _, url := range services {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		text := strings.TrimSpace(string(body))
		if ip := net.ParseIP(text); ip != nil {
			return &model.PortMapping{
				InternalPort: internalPort,
				ExternalIP:   ip.String(),
				ExternalPort: internalPort,
				Protocol:     model.ProtocolDirect,
				LifetimeSecs: 0,
				AcquiredAt:   model.NowMillis(),
			}, nil
		}
		lastErr = model.NewError(model.KindConnectivity, "unparseable ip echo response", nil)
	}

	return nil, model.NewError(model.KindConnectivity, "all ip echo services failed", lastErr)
}
