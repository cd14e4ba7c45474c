package cache

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
)

// Port range used when no port is configured.
const (
	MinPort = 3000
	MaxPort = 9000
)

// ErrNoPort is returned when every port in the range is taken.
var ErrNoPort = errors.New("no available port")

// RandomPort picks a random free port in [minPort, maxPort], scanning upward
// from minPort when the random choice is taken.
func RandomPort(minPort, maxPort int) (int, error) {
	if minPort > maxPort {
		minPort, maxPort = maxPort, minPort
	}
	port := minPort + rand.IntN(maxPort-minPort+1) //nolint:gosec // port choice only
	if PortAvailable(port) {
		return port, nil
	}
	for p := minPort; p <= maxPort; p++ {
		if PortAvailable(p) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w between %d and %d", ErrNoPort, minPort, maxPort)
}

// PortAvailable reports whether port can be bound on the loopback interface.
func PortAvailable(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
