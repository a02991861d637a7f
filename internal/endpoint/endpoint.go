// Package endpoint parses synchronization endpoint descriptors into a
// canonical value and derives stable names from that value.
//
// An Endpoint is either a Local directory or a Remote directory reached over
// SSH. Both variants are immutable values that are safe to copy and share.
package endpoint

import (
	"github.com/limsync/limsync/internal/config"
	"github.com/limsync/limsync/internal/constants"
)

// Kind identifies an Endpoint variant.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Endpoint is a canonical endpoint. The only implementations are Local and
// Remote.
type Endpoint interface {
	// Kind reports which variant the endpoint is.
	Kind() Kind

	// Label returns a human-readable address. It is not meant for re-parsing.
	Label() string

	// String returns the canonical, round-trippable form.
	String() string

	// DefaultStateDBPath returns where the endpoint keeps its state database.
	DefaultStateDBPath() string

	// Slug returns a short filesystem-safe identifier for the endpoint.
	Slug() string

	sealed()
}

// Local is a directory on this machine. Root is absolute, home-expanded and
// symlink-resolved when produced by Parse.
type Local struct {
	Root string
}

// Remote is a directory on an SSH host. Root may start with "~".
type Remote struct {
	User string
	Host string
	Port int
	Root string
}

// NewRemote returns a Remote, substituting the default port for port <= 0.
func NewRemote(user, host string, port int, root string) Remote {
	if port <= 0 {
		port = constants.DefaultRemotePort
	}
	return Remote{User: user, Host: host, Port: port, Root: root}
}

// FromRemoteConfig converts an older-style remote configuration.
func FromRemoteConfig(cfg config.RemoteConfig) Remote {
	return NewRemote(cfg.User, cfg.Host, cfg.Port, cfg.Root)
}

func (Local) Kind() Kind  { return KindLocal }
func (Remote) Kind() Kind { return KindRemote }

func (Local) sealed()  {}
func (Remote) sealed() {}

// IsLocal reports whether e is a Local endpoint.
func IsLocal(e Endpoint) bool {
	return e != nil && e.Kind() == KindLocal
}

// IsRemote reports whether e is a Remote endpoint.
func IsRemote(e Endpoint) bool {
	return e != nil && e.Kind() == KindRemote
}

// Root returns the root path of either variant.
func Root(e Endpoint) string {
	switch v := e.(type) {
	case Local:
		return v.Root
	case Remote:
		return v.Root
	default:
		return ""
	}
}
