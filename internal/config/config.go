// Package config holds the older-style remote configuration value.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/limsync/limsync/internal/constants"
)

// RemoteConfig describes a remote side the way older configuration files do.
type RemoteConfig struct {
	Host    string `json:"host"`
	User    string `json:"user"`
	Port    int    `json:"port"`
	Root    string `json:"root"`
	StateDB string `json:"state_db"` // relative to Root
}

// NewRemoteConfig returns a RemoteConfig with the default port, root and
// state database path.
func NewRemoteConfig(host, user string) RemoteConfig {
	return RemoteConfig{
		Host:    host,
		User:    user,
		Port:    constants.DefaultRemotePort,
		Root:    constants.DefaultRemoteRoot,
		StateDB: constants.DefaultStateSubpath,
	}
}

// Address returns "user@host[:port]:root". The port is omitted when it is
// the default.
func (c RemoteConfig) Address() string {
	portPart := ""
	if c.Port != constants.DefaultRemotePort {
		portPart = ":" + strconv.Itoa(c.Port)
	}
	return fmt.Sprintf("%s@%s%s:%s", c.User, c.Host, portPart, c.Root)
}

// SplitAddress splits "user@host:root" on the first ":" and then the
// "user@host" part on the first "@". ok is false when either separator is
// missing from its part.
func SplitAddress(addr string) (user, host, root string, ok bool) {
	userHost, root, found := strings.Cut(addr, ":")
	if !found {
		return "", "", "", false
	}
	user, host, found = strings.Cut(userHost, "@")
	if !found {
		return "", "", "", false
	}
	return user, host, root, true
}

// ParseRemoteAddress parses a legacy "user@host:root" address. Any port-like
// text is left in the root; the port is always the default.
func ParseRemoteAddress(addr string) (RemoteConfig, error) {
	if !strings.Contains(addr, "@") || !strings.Contains(addr, ":") {
		return RemoteConfig{}, fmt.Errorf("invalid remote address: %s", addr)
	}

	user, host, root, ok := SplitAddress(addr)
	if !ok {
		return RemoteConfig{}, fmt.Errorf("invalid remote address: %s", addr)
	}

	cfg := NewRemoteConfig(host, user)
	cfg.Root = root
	return cfg, nil
}
