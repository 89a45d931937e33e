package system

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultTimezone is used when the host zone cannot be determined.
const DefaultTimezone = "Etc/UTC"

// Timezone returns the host's IANA zone name for the TZ variable of
// linuxserver.io style containers.
func Timezone() string {
	return timezoneFrom(os.Getenv("TZ"), "/etc/timezone", "/etc/localtime")
}

func timezoneFrom(env, timezoneFile, localtime string) string {
	if tz := strings.TrimPrefix(strings.TrimSpace(env), ":"); tz != "" {
		return tz
	}
	if data, err := os.ReadFile(timezoneFile); err == nil {
		if tz := strings.TrimSpace(string(data)); tz != "" {
			return tz
		}
	}
	// /etc/localtime -> /usr/share/zoneinfo/Europe/Berlin
	if target, err := filepath.EvalSymlinks(localtime); err == nil {
		if _, zone, ok := strings.Cut(filepath.ToSlash(target), "zoneinfo/"); ok && zone != "" {
			return zone
		}
	}
	return DefaultTimezone
}
