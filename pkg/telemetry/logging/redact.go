package logging

import (
	"net/url"
)

// RedactURL hides the password of a connection URL such as
// "redis://:secret@cache:6379/0" so it can be logged. Values that do not
// parse as URLs are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Redacted()
}
