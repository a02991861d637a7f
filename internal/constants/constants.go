package constants

import "os"

// Remote endpoint defaults
const (
	// DefaultRemotePort is the SSH port assumed when an address does not name one.
	DefaultRemotePort = 22

	// DefaultRemoteRoot is the remote root used by RemoteConfig when none is given.
	DefaultRemoteRoot = "."
)

// State storage constants
const (
	// StateDirName is the per-endpoint and per-user directory holding limsync databases.
	StateDirName = ".limsync"

	// DefaultStateSubpath is the state database location relative to an endpoint root.
	DefaultStateSubpath = StateDirName + "/state.sqlite3"

	// ReviewDBExt is the file extension of paired review databases.
	ReviewDBExt = ".sqlite3"
)

// File permissions
const (
	// DirPermissions is the default permission mode for directories.
	DirPermissions os.FileMode = 0755

	// FilePermissions is the default permission mode for database files.
	FilePermissions os.FileMode = 0600
)
