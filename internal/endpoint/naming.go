package endpoint

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limsync/limsync/internal/constants"
	"github.com/limsync/limsync/internal/paths"
	"github.com/limsync/limsync/internal/slug"
)

// Label returns "local:<root>".
func (l Local) Label() string {
	return localPrefix + l.Root
}

// String returns "local:<root>".
func (l Local) String() string {
	return localPrefix + l.Root
}

// DefaultStateDBPath returns <root>/.limsync/state.sqlite3.
func (l Local) DefaultStateDBPath() string {
	return filepath.Join(l.Root, constants.DefaultStateSubpath)
}

// Slug returns local-<basename>-<digest>.
func (l Local) Slug() string {
	return slug.Join("local", localTail(l.Root), slug.Digest(l.String()))
}

// Label returns "user@host[:port]:root", omitting the default port.
func (r Remote) Label() string {
	portPart := ""
	if r.Port != constants.DefaultRemotePort {
		portPart = ":" + strconv.Itoa(r.Port)
	}
	return fmt.Sprintf("%s@%s%s:%s", r.User, r.Host, portPart, r.Root)
}

// String returns "ssh://user@host:port<root>" with the port always present.
// Home-relative roots are written as "/~/..." so that Parse maps them back.
// A "~name" root also gets the "/" but parses back as "/~name".
func (r Remote) String() string {
	host := r.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	root := r.Root
	if strings.HasPrefix(root, "~") {
		root = "/" + root
	}

	return fmt.Sprintf("%s%s@%s:%d%s", sshPrefix, url.User(r.User).String(), host, r.port(), root)
}

// DefaultStateDBPath joins the root and the state subpath with "/". The root
// lives on the remote host, so it is not cleaned against the local filesystem.
func (r Remote) DefaultStateDBPath() string {
	return strings.TrimRight(r.Root, "/") + "/" + constants.DefaultStateSubpath
}

// Slug returns remote-<host>-<basename>-<digest>.
func (r Remote) Slug() string {
	host := r.Host
	if host == "" {
		host = "host"
	}
	return slug.Join("remote", host, remoteTail(r.Root), slug.Digest(r.String()))
}

func (r Remote) port() int {
	if r.Port <= 0 {
		return constants.DefaultRemotePort
	}
	return r.Port
}

func localTail(root string) string {
	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		return "root"
	}
	return name
}

func remoteTail(root string) string {
	name := path.Base(root)
	if name == "." || name == "/" {
		return "root"
	}
	return name
}

// DefaultStateDBPath returns the state database path of e.
func DefaultStateDBPath(e Endpoint) string {
	return e.DefaultStateDBPath()
}

// Slug returns the slug of e.
func Slug(e Endpoint) string {
	return e.Slug()
}

// ReviewDBPath returns ~/.limsync/<source slug>__<destination slug>.sqlite3,
// creating ~/.limsync if needed.
func ReviewDBPath(source, destination Endpoint) (string, error) {
	return ReviewDBPathIn(nil, source, destination)
}

// ReviewDBPathIn is ReviewDBPath for the home directory of resolver. A nil
// resolver uses the current user's home directory.
func ReviewDBPathIn(resolver *paths.Resolver, source, destination Endpoint) (string, error) {
	if resolver == nil {
		var err error
		resolver, err = paths.NewResolver()
		if err != nil {
			return "", err
		}
	}

	dir, err := resolver.EnsureStateDir()
	if err != nil {
		return "", err
	}
	name := source.Slug() + "__" + destination.Slug() + constants.ReviewDBExt
	return filepath.Join(dir, name), nil
}
