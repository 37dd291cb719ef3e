package connectivity

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"pure2p/internal/model"
)

func TestIsCGNATDetectsSharedAddressSpace(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsCGNAT(net.ParseIP("100.64.0.1")))
	assert.True(IsCGNAT(net.ParseIP("100.127.255.254")))
	assert.False(IsCGNAT(net.ParseIP("100.63.255.255")))
	assert.False(IsCGNAT(net.ParseIP("100.128.0.1")))
	assert.False(IsCGNAT(net.ParseIP("203.0.113.5")))
}

func TestIsGlobalUnicastV6RejectsLinkLocalAndULA(t *testing.T) {
	assert := assert.New(t)

	assert.True(isGlobalUnicastV6(net.ParseIP("2001:db8::1")))
	assert.False(isGlobalUnicastV6(net.ParseIP("fe80::1")))
	assert.False(isGlobalUnicastV6(net.ParseIP("fc00::1")))
	assert.False(isGlobalUnicastV6(net.ParseIP("fd12:3456:789a::1")))
	assert.False(isGlobalUnicastV6(net.ParseIP("203.0.113.5")))
}

type fakeStrategy struct {
	name    model.Protocol
	mapping *model.PortMapping
	err     error
}

func (f fakeStrategy) Name() model.Protocol { return f.name }

func (f fakeStrategy) TryMap(ctx context.Context, internalPort int) (*model.PortMapping, error) {
	return f.mapping, f.err
}

func TestEstablishReturnsFirstSuccess(t *testing.T) {
	anErr := assert.AnError
	assert := assert.New(t)

	strategies := []Strategy{
		fakeStrategy{name: model.ProtocolIPv6, err: anErr},
		fakeStrategy{name: model.ProtocolPCP, mapping: &model.PortMapping{ExternalIP: "203.0.113.5", Protocol: model.ProtocolPCP}},
		fakeStrategy{name: model.ProtocolNATPMP, mapping: &model.PortMapping{ExternalIP: "203.0.113.6", Protocol: model.ProtocolNATPMP}},
	}

	mapping, attempts := Establish(context.Background(), 5000, strategies)
	assert.NotNil(mapping)
	assert.Equal(model.ProtocolPCP, mapping.Protocol)
	assert.Len(attempts, 2)
}

func TestEstablishKeepsCGNATMappingAsSuccess(t *testing.T) {
	assert := assert.New(t)

	strategies := []Strategy{
		fakeStrategy{name: model.ProtocolPCP, mapping: &model.PortMapping{ExternalIP: "100.64.1.1", Protocol: model.ProtocolPCP}},
		fakeStrategy{name: model.ProtocolUPnP, mapping: &model.PortMapping{ExternalIP: "203.0.113.6", Protocol: model.ProtocolUPnP}},
	}

	mapping, attempts := Establish(context.Background(), 5000, strategies)
	assert.NotNil(mapping)
	assert.Equal(model.ProtocolPCP, mapping.Protocol)
	assert.Len(attempts, 1)
	assert.True(attempts[0].CGNAT)
}

func TestEstablishReturnsNilWhenAllStrategiesFail(t *testing.T) {
	anErr := assert.AnError
	assert := assert.New(t)

	strategies := []Strategy{
		fakeStrategy{name: model.ProtocolPCP, err: anErr},
		fakeStrategy{name: model.ProtocolNATPMP, err: anErr},
	}

	mapping, attempts := Establish(context.Background(), 5000, strategies)
	assert.Nil(mapping)
	assert.Len(attempts, 2)
}
