package cache

import (
	"fmt"
	"net/url"
	"strings"
)

// Open creates a backend from a connection URL:
//
//	redis://[:password@]host:port/db   Redis (also rediss:// and unix://)
//	sqlite:///var/lib/turfgame/cache.db  SQLite file (absolute path)
//	sqlite://cache.db                   SQLite file (relative path)
//	memory://                           in-process map
func Open(rawURL string) (Backend, error) {
	kind, err := backendKind(rawURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "redis":
		return NewRedisBackend(rawURL)
	case "sqlite":
		return NewSQLiteBackend(SQLiteConfig{Path: sqlitePath(rawURL)})
	default:
		return NewMemoryBackend(), nil
	}
}

// CheckURL reports whether Open would accept rawURL, without connecting.
func CheckURL(rawURL string) error {
	_, err := backendKind(rawURL)
	return err
}

func backendKind(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("cache url cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid cache url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss", "unix":
		return "redis", nil
	case "sqlite", "sqlite3":
		if sqlitePath(rawURL) == "" {
			return "", fmt.Errorf("sqlite cache url %q has no path", rawURL)
		}
		return "sqlite", nil
	case "memory", "mem":
		return "memory", nil
	default:
		return "", fmt.Errorf("unsupported cache scheme %q", u.Scheme)
	}
}

// sqlitePath strips the scheme from a sqlite URL. Anything after "?" is
// dropped since the backend sets its own pragmas.
func sqlitePath(rawURL string) string {
	_, rest, _ := strings.Cut(rawURL, "://")
	rest, _, _ = strings.Cut(rest, "?")
	return rest
}
