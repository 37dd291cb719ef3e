package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPortReusesSavedPortWhenIPUnchanged(t *testing.T) {
	assert := assert.New(t)

	port, err := SelectPort("203.0.113.5", "203.0.113.5", 51000)
	assert.Nil(err)
	assert.Equal(51000, port)
}

func TestSelectPortIgnoresPortWhenComparingIPs(t *testing.T) {
	assert := assert.New(t)

	port, err := SelectPort("203.0.113.5", "203.0.113.5", 60000)
	assert.Nil(err)
	assert.Equal(60000, port)
}

func TestSelectPortDrawsFreshPortWhenIPChanged(t *testing.T) {
	assert := assert.New(t)

	port, err := SelectPort("203.0.113.6", "203.0.113.5", 51000)
	assert.Nil(err)
	assert.GreaterOrEqual(port, ephemeralPortLow)
	assert.LessOrEqual(port, ephemeralPortHigh)
	assert.NotEqual(51000, port)
}

func TestSelectPortDrawsFreshPortWhenNoSavedState(t *testing.T) {
	assert := assert.New(t)

	port, err := SelectPort("203.0.113.6", "", 0)
	assert.Nil(err)
	assert.GreaterOrEqual(port, ephemeralPortLow)
	assert.LessOrEqual(port, ephemeralPortHigh)
}
