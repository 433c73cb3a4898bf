// Package events defines the outbound event wire model and the closed
// property value types accepted by the tracker.
package events

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ReservedPrefix marks event names owned by the library. Caller-supplied
// names must not use it.
const ReservedPrefix = "beacon."

// Automatic event names emitted on session boundaries.
const (
	EventSessionStart = ReservedPrefix + "sessionStart"
	EventSessionEnd   = ReservedPrefix + "sessionEnd"
)

// ClientType tags outbound events with the kind of client that sent them,
// and ClientVersion with the library release that built them.
const (
	ClientType    = "go"
	ClientVersion = "1.4.0"
)

// Bit flags composing the client_config field.
const (
	ConfigBitMetadata  = 1 << iota // event metadata attached
	ConfigBitAutomatic             // automatic lifecycle events enabled
	ConfigBitUnique                // multi-period uniqueness enabled
	ConfigBitDebug                 // debug traffic
)

// MaxNameLen bounds event names; matches the collector's ingest validation.
const MaxNameLen = 128

var (
	ErrEmptyName    = errors.New("event name is empty")
	ErrNameTooLong  = fmt.Errorf("event name exceeds %d bytes", MaxNameLen)
	ErrReservedName = fmt.Errorf("event names starting with %q are reserved", ReservedPrefix)
)

// Event is the wire shape of a single tracked event. Fields map one to one
// onto the JSON body POSTed to the collection endpoint.
type Event struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DatetimeUTC   string `json:"datetime_utc"`
	DatetimeLocal string `json:"datetime_local,omitempty"`
	Timezone      string `json:"timezone,omitempty"`

	// Properties carries the merged property mapping as a compact JSON
	// string; empty when encoding failed.
	Properties string `json:"properties"`

	Language           string `json:"language,omitempty"`
	AppVersion         string `json:"app_version,omitempty"`
	AppInstallDate     string `json:"app_install_date,omitempty"`
	OSName             string `json:"os_name,omitempty"`
	OSMajorVersion     string `json:"os_major_version,omitempty"`
	DeviceModel        string `json:"device_model,omitempty"`
	DeviceManufacturer string `json:"device_manufacturer,omitempty"`

	PreviousEventName        string `json:"previous_event_name,omitempty"`
	PreviousEventDatetimeUTC string `json:"previous_event_datetime_utc,omitempty"`

	FirstOfSession bool  `json:"first_of_session"`
	FirstOfHour    *bool `json:"first_of_hour,omitempty"`
	FirstOfDay     *bool `json:"first_of_day,omitempty"`
	FirstOfWeek    *bool `json:"first_of_week,omitempty"`
	FirstOfMonth   *bool `json:"first_of_month,omitempty"`
	FirstOfQuarter *bool `json:"first_of_quarter,omitempty"`

	Client        string `json:"client"`
	ClientVersion string `json:"client_version"`
	ClientConfig  int    `json:"client_config"`
	Debug         bool   `json:"debug,omitempty"`
}

// NewID returns a ULID string for event identity and duplicate detection.
func NewID() string {
	return ulid.Make().String()
}

// ValidateName checks structural rules shared by caller and automatic names.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// ValidateCallerName additionally rejects the reserved automatic prefix.
func ValidateCallerName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return ErrReservedName
	}
	return nil
}
