// Package metadata supplies the static, session-scoped facts attached to
// outbound events. Providers are queried once per session; the resulting
// snapshot is reused for every event until the next session boundary.
package metadata

import (
	"os"
	"runtime"
	"strings"
	"time"
)

// Snapshot holds the metadata block fields for one session.
type Snapshot struct {
	Language           string
	AppVersion         string
	AppInstallDate     time.Time
	OSName             string
	OSMajorVersion     string
	DeviceModel        string
	DeviceManufacturer string
}

// Provider supplies a Snapshot. Implementations should be cheap to call;
// the tracker still caches the result per session.
type Provider interface {
	Snapshot() Snapshot
}

// StaticProvider returns a fixed snapshot. Hosts with their own device
// inventory inject one of these.
type StaticProvider struct {
	Value Snapshot
}

func (p StaticProvider) Snapshot() Snapshot { return p.Value }

// HostProvider reads what the Go runtime and environment expose about the
// host: OS name from the platform target, device model from the
// architecture, language from the locale environment. App facts come from
// configuration since the runtime cannot know them.
type HostProvider struct {
	AppVersion     string
	AppInstallDate time.Time
}

func (p HostProvider) Snapshot() Snapshot {
	return Snapshot{
		Language:       hostLanguage(),
		AppVersion:     p.AppVersion,
		AppInstallDate: p.AppInstallDate,
		OSName:         runtime.GOOS,
		DeviceModel:    runtime.GOARCH,
	}
}

// hostLanguage extracts the language tag from the POSIX locale variables,
// e.g. "en" from "en_US.UTF-8".
func hostLanguage() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		val := os.Getenv(key)
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		if i := strings.IndexAny(val, "_."); i > 0 {
			return val[:i]
		}
		return val
	}
	return ""
}
