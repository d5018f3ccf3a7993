package remote

import (
	"context"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var registry = map[string]Provider{}

func RegisterProvider(name string, provider Provider) {
	registry[name] = provider
}

func GetProvider(name string) (Provider, error) {
	provider, ok := registry[name]
	if !ok {
		options := []string{}
		for k := range registry {
			options = append(options, k)
		}
		return nil, errors.Errorf("provider %s not found, options: %s", name, strings.Join(options, ", "))
	}
	return provider, nil
}

// Provider is the primary interface for interacting with remote file stores
// (e.g. an SFTP drop site). A provider hands out one Session per ingestion
// pass; the pass owns the session and closes it on every exit path.
type Provider interface {
	// Name returns the name of the provider (e.g. "sftp")
	Name() string
	// Connect opens a fresh session to the remote store
	Connect(ctx context.Context) (Session, error)
}

// Session is a live connection to the remote store. Entities are the
// top-level folders at the root of the store, one per data-producing unit.
type Session interface {
	// ListEntities lists the entity folders at the store root
	ListEntities(ctx context.Context) ([]string, error)
	// ListDateFolders lists the dated subfolders under an entity
	ListDateFolders(ctx context.Context, entity string) ([]string, error)
	// ListFiles lists filenames within an entity's dated folder
	ListFiles(ctx context.Context, entity, folder string) ([]string, error)
	// Open opens a named file within an entity's dated folder for reading
	Open(ctx context.Context, entity, folder, name string) (io.ReadCloser, error)

	Close() error
}

// ErrNotFound tags "the path does not exist" conditions so callers can tell
// a not-yet-published folder apart from a real transport failure. Sessions
// wrap it via NotFound; callers test with IsNotFound.
var ErrNotFound = errors.New("remote path not found")

// NotFound wraps a missing-path condition for the given remote path.
func NotFound(path string) error {
	return errors.Errorf("%s: %w", path, ErrNotFound)
}

// IsNotFound reports whether err represents a missing remote path rather
// than an I/O or transport failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
