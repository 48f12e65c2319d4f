// Package discover lists HomeKit accessories announced on the local
// network.
package discover

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const hapService = "_hap._tcp"

// HomeKit accessory category of a lightbulb.
const CategoryLightbulb = 5

// Accessory is one HomeKit accessory found via mDNS.
type Accessory struct {
	Name     string
	Host     string
	Port     int
	ID       string // device id
	Model    string
	Category int
	Paired   bool // false while the accessory accepts a new pairing
}

func (a Accessory) String() string {
	state := "unpaired"
	if a.Paired {
		state = "paired"
	}
	return fmt.Sprintf("%s (%s) at %s:%d id=%s category=%d %s", a.Name, a.Model, a.Host, a.Port, a.ID, a.Category, state)
}

// Accessories queries the network for timeout and returns what answered.
func Accessories(timeout time.Duration) ([]Accessory, error) {
	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan []Accessory)

	go func() {
		var found []Accessory
		seen := make(map[string]bool)
		for entry := range entries {
			acc := fromEntry(entry)
			key := acc.ID
			if key == "" {
				key = fmt.Sprintf("%s:%d", acc.Host, acc.Port)
			}
			if !seen[key] {
				seen[key] = true
				found = append(found, acc)
			}
		}
		done <- found
	}()

	params := mdns.DefaultParams(hapService)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	found := <-done
	if err != nil {
		return found, fmt.Errorf("mDNS query failed: %w", err)
	}
	return found, nil
}

func fromEntry(entry *mdns.ServiceEntry) Accessory {
	acc := Accessory{
		Name: strings.TrimSuffix(entry.Name, "."+hapService+".local."),
		Port: entry.Port,
	}
	if entry.AddrV4 != nil {
		acc.Host = entry.AddrV4.String()
	} else {
		acc.Host = strings.TrimSuffix(entry.Host, ".")
	}

	acc.Paired = true
	for _, txt := range entry.InfoFields {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "id":
			acc.ID = value
		case "md":
			acc.Model = value
		case "ci":
			acc.Category, _ = strconv.Atoi(value)
		case "sf":
			acc.Paired = value == "0"
		}
	}
	return acc
}
