package endpoint

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/limsync/limsync/internal/config"
	"github.com/limsync/limsync/internal/constants"
	"github.com/limsync/limsync/internal/paths"
)

const (
	localPrefix = "local:"
	sshPrefix   = "ssh://"
	maxPort     = 65535
)

// user@host:root, where user has no "@" or whitespace and host has no ":"
// or whitespace.
var legacyRemoteRegex = regexp.MustCompile(`^[^@\s]+@[^:\s]+:.+`)

// Parser converts endpoint strings into Endpoints.
type Parser struct {
	resolver *paths.Resolver
	logger   *slog.Logger
}

// NewParser creates a Parser. A nil resolver looks up the current user's home
// directory when a local path needs resolving; a nil logger uses slog.Default.
func NewParser(resolver *paths.Resolver, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{resolver: resolver, logger: logger}
}

// Parse parses text with a default Parser.
func Parse(text string) (Endpoint, error) {
	return NewParser(nil, nil).Parse(text)
}

// Parse recognizes, in order:
//  1. local:<path>
//  2. ssh://user@host[:port]/path
//  3. user@host:path (port is always the default)
//  4. any other string, as a local path
//
// Malformed input fails with *InvalidEndpointError. Filesystem errors from
// resolving a local path are returned as they are.
func (p *Parser) Parse(value string) (Endpoint, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil, invalid(value, "endpoint cannot be empty")
	}

	switch {
	case strings.HasPrefix(text, localPrefix):
		pathValue := strings.TrimSpace(text[len(localPrefix):])
		if pathValue == "" {
			return nil, invalid(value, "local endpoint path cannot be empty")
		}
		p.logger.Debug("parsing endpoint", "form", "local", "input", value)
		return p.parseLocal(pathValue)

	case strings.HasPrefix(text, sshPrefix):
		p.logger.Debug("parsing endpoint", "form", "ssh-url", "input", value)
		return parseSSHURL(value, text)

	case legacyRemoteRegex.MatchString(text):
		p.logger.Debug("parsing endpoint", "form", "legacy", "input", value)
		user, host, root, ok := config.SplitAddress(text)
		if !ok {
			return nil, invalid(value, "malformed user@host:path address")
		}
		return NewRemote(user, host, constants.DefaultRemotePort, root), nil

	default:
		p.logger.Debug("parsing endpoint", "form", "path", "input", value)
		return p.parseLocal(text)
	}
}

func (p *Parser) parseLocal(pathValue string) (Endpoint, error) {
	resolver := p.resolver
	if resolver == nil {
		var err error
		resolver, err = paths.NewResolver()
		if err != nil {
			return nil, err
		}
	}

	root, err := resolver.Resolve(pathValue)
	if err != nil {
		return nil, err
	}
	return Local{Root: root}, nil
}

// parseSSHURL validates only the scheme and authority with net/url; the path
// is taken as written so escapes in it never fail the parse.
func parseSSHURL(value, text string) (Endpoint, error) {
	authority, urlPath := splitSSHURL(text)
	u, err := url.Parse(sshPrefix + authority)
	if err != nil {
		return nil, invalid(value, "invalid ssh url: %v", err)
	}
	if u.Scheme != "ssh" {
		return nil, invalid(value, "scheme must be ssh")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, invalid(value, "missing host")
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, invalid(value, "missing user")
	}

	port := constants.DefaultRemotePort
	if s := u.Port(); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxPort {
			return nil, invalid(value, "port out of range: %s", s)
		}
		if n != 0 {
			port = n
		}
	}

	return NewRemote(u.User.Username(), host, port, sshRoot(urlPath)), nil
}

// splitSSHURL returns the authority and the raw, undecoded path of an ssh://
// URL. Query and fragment are dropped.
func splitSSHURL(text string) (authority, urlPath string) {
	rest := text[len(sshPrefix):]
	i := strings.IndexAny(rest, "/?#")
	if i < 0 {
		return rest, ""
	}
	authority = rest[:i]
	if rest[i] != '/' {
		return authority, ""
	}
	urlPath = rest[i:]
	if j := strings.IndexAny(urlPath, "?#"); j >= 0 {
		urlPath = urlPath[:j]
	}
	return authority, urlPath
}

// sshRoot maps a URL path to a remote root: "/~/x" and "/~" are relative to
// the remote home, an empty path is "/".
func sshRoot(urlPath string) string {
	root := urlPath
	if root == "" {
		root = "/"
	}

	switch {
	case strings.HasPrefix(root, "/~/"):
		root = root[1:]
	case root == "/~":
		root = "~"
	}

	if !strings.HasPrefix(root, "/") && !strings.HasPrefix(root, "~") {
		root = "/" + root
	}
	return root
}
