// Package notifications delivers episode and error events via ntfy.
//
// NewService returns a no-op notifier when notifications are disabled or no
// topic is configured, so callers never need to check. The rename and errors
// switches in the [notifications] section silence their event groups.
package notifications
