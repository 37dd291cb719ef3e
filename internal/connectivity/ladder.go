package connectivity

import (
	"context"
	"strconv"

	"pure2p/internal/model"
)

// Ladder owns the ordered strategy list and the "first success wins"
// control flow, kept distinct from MappingManager's renewal/release
// ownership; those are two separate responsibilities.
type Ladder struct {
	Strategies []Strategy
}

// DefaultLadder is the default rung order: IPv6, PCP, NAT-PMP, UPnP,
// then the HTTP-IP fallback.
func DefaultLadder() Ladder {
	return Ladder{Strategies: []Strategy{
		IPv6Strategy{},
		PCPStrategy{},
		NATPMPStrategy{},
		UPnPStrategy{},
		HTTPIPStrategy{},
	}}
}

func (l Ladder) Run(ctx context.Context, internalPort int) (*model.PortMapping, []Attempt) {
	return Establish(ctx, internalPort, l.Strategies)
}

// Summary renders one line per attempted rung for the diagnostics
// screen, showing per-protocol failure reasons. A CGNAT attempt still
// succeeded, so its line leads with a CGNAT marker rather than
// reporting a failure.
func Summary(attempts []Attempt) []string {
	lines := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if a.Err != nil {
			lines = append(lines, string(a.Strategy)+": failed: "+a.Err.Error())
			continue
		}
		line := string(a.Strategy) + ": succeeded (" + a.Mapping.ExternalIP + ":" + strconv.Itoa(a.Mapping.ExternalPort) + ")"
		if a.CGNAT {
			line = cgnatMarker + " " + line
		}
		lines = append(lines, line)
	}
	return lines
}

// cgnatMarker prefixes a diagnostics line whose mapping succeeded but
// whose external address falls inside the carrier-grade NAT block.
const cgnatMarker = "⚠️  CGNAT"
