package net

import (
	"log/slog"
	"net"

	"InkBoard/internal/logging"
)

// OutgoingIP finds the preferred local IP address to put in share links.
func OutgoingIP(logger *slog.Logger) string {
	if logger == nil {
		logger = logging.Nop()
	}
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route to the internet: fall back to the interfaces
		return localIPFallback(logger)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func localIPFallback(logger *slog.Logger) string {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	logger.Warn("[net] no suitable local IP found, share link uses loopback")
	return "127.0.0.1"
}
