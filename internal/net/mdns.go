// Package net carries pointer events and stroke ops between the board and
// its remote clients, and announces the board on the local network.
package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_inkboard._tcp"

// Advertise announces a board listening on port. Call Shutdown on the
// returned server to withdraw it.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		host,        // instance name
		ServiceType, // service
		"",          // domain, defaults to .local
		"",          // host name, defaults to the OS host name
		port,
		nil, // IPs, auto-detected
		[]string{"InkBoard", "path=/ws"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse looks for boards for up to timeout and calls found with the
// host:port of every answer that has an IPv4 address.
func Browse(ctx context.Context, timeout time.Duration, found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)))
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done
	return err
}
