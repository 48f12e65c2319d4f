package discover

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
)

func TestFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "NeoStrip._hap._tcp.local.",
		Host:       "neostrip.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       51826,
		InfoFields: []string{"c#=2", "id=AA:BB:CC:DD:EE:FF", "md=NeoStrip", "ci=5", "sf=1", "broken"},
	}

	acc := fromEntry(entry)
	assert.Equal(t, Accessory{
		Name:     "NeoStrip",
		Host:     "192.168.1.20",
		Port:     51826,
		ID:       "AA:BB:CC:DD:EE:FF",
		Model:    "NeoStrip",
		Category: CategoryLightbulb,
		Paired:   false,
	}, acc)
	assert.Contains(t, acc.String(), "unpaired")
}

func TestFromEntry_HostFallbackAndPaired(t *testing.T) {
	acc := fromEntry(&mdns.ServiceEntry{
		Name:       "Lamp._hap._tcp.local.",
		Host:       "lamp.local.",
		Port:       8080,
		InfoFields: []string{"sf=0"},
	})
	assert.Equal(t, "lamp.local", acc.Host)
	assert.True(t, acc.Paired)
	assert.Equal(t, "Lamp () at lamp.local:8080 id= category=0 paired", acc.String())
}
