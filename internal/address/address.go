package address

import (
	"errors"
	"net"
	"strconv"
)

// DefaultHost is used when the address consists of the port only.
const DefaultHost = "0.0.0.0"

var (
	ErrNoPort  = errors.New("no port given")
	ErrBadPort = errors.New("invalid port")
)

// Normalize validates the listen address and fills in the default host if it's omitted.
// Port 0 is allowed and means any free port.
func Normalize(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		if _, _, err = net.SplitHostPort(addr + ":0"); err == nil {
			return "", ErrNoPort
		}

		return "", err
	}

	if len(port) == 0 {
		return "", ErrNoPort
	}

	if _, err = strconv.ParseUint(port, 10, 16); err != nil {
		return "", ErrBadPort
	}

	if len(host) == 0 {
		host = DefaultHost
	}

	return net.JoinHostPort(host, port), nil
}
