package events

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateCallerName(t *testing.T) {
	if err := ValidateCallerName("purchase"); err != nil {
		t.Errorf("plain name rejected: %v", err)
	}
	if err := ValidateCallerName(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
	if err := ValidateCallerName(ReservedPrefix + "sessionStart"); !errors.Is(err, ErrReservedName) {
		t.Errorf("reserved name error = %v, want ErrReservedName", err)
	}
	if err := ValidateCallerName(strings.Repeat("x", MaxNameLen+1)); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("long name error = %v, want ErrNameTooLong", err)
	}
}

func TestAutomaticNamesPassBaseValidation(t *testing.T) {
	for _, name := range []string{EventSessionStart, EventSessionEnd} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
}

func TestMergePrecedence(t *testing.T) {
	super := NewProperties().
		Set("a", Number(1)).
		Set("b", Number(2))
	call := NewProperties().
		Set("b", Number(3))

	merged := Merge(super, call)

	if v, _ := merged.Get("a"); mustNum(t, v) != 1 {
		t.Error("merge lost the base-only key")
	}
	if v, _ := merged.Get("b"); mustNum(t, v) != 3 {
		t.Error("caller properties must win on key collision")
	}
}

func TestMergeNilOperands(t *testing.T) {
	if got := Merge(nil, nil); got.Len() != 0 {
		t.Errorf("merge of nils should be empty, got %d entries", got.Len())
	}
	call := NewProperties().Set("k", String("v"))
	if got := Merge(nil, call); got.Len() != 1 {
		t.Error("merge with nil base should keep overlay entries")
	}
}

func TestPropertiesMarshalPreservesInsertionOrder(t *testing.T) {
	p := NewProperties().
		Set("zebra", Number(1)).
		Set("apple", Number(2)).
		Set("mango", Number(3))
	p.Set("zebra", Number(9)) // update keeps the original slot

	got, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"zebra":9,"apple":2,"mango":3}`
	if got != want {
		t.Errorf("Encode = %s, want %s", got, want)
	}
}

func TestNestedValueEncoding(t *testing.T) {
	p := NewProperties().
		Set("tags", List(String("new"), String("sale"))).
		Set("nested", Object(NewProperties().Set("depth", Number(2)))).
		Set("none", Null())

	got, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"tags":["new","sale"],"nested":{"depth":2},"none":null}`
	if got != want {
		t.Errorf("Encode = %s, want %s", got, want)
	}
}

func TestCloneIsolation(t *testing.T) {
	orig := NewProperties().Set("k", String("v"))
	clone := orig.Clone()
	clone.Set("k", String("changed"))

	if v, _ := orig.Get("k"); mustStr(t, v) != "v" {
		t.Error("mutating a clone must not reach the original")
	}
}

func TestEventWireFieldNames(t *testing.T) {
	first := true
	ev := Event{
		ID:                       NewID(),
		Name:                     "purchase",
		DatetimeUTC:              "2026-08-25T14:00:00Z",
		Properties:               "{}",
		PreviousEventName:        "screenView",
		PreviousEventDatetimeUTC: "2026-08-25T13:59:00Z",
		FirstOfSession:           true,
		FirstOfDay:               &first,
		Client:                   ClientType,
		ClientVersion:            ClientVersion,
		ClientConfig:             ConfigBitMetadata | ConfigBitUnique,
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{
		"id", "name", "datetime_utc", "properties",
		"previous_event_name", "previous_event_datetime_utc",
		"first_of_session", "first_of_day",
		"client", "client_version", "client_config",
	} {
		if _, ok := fields[key]; !ok {
			t.Errorf("wire body missing field %q", key)
		}
	}
	if _, ok := fields["first_of_week"]; ok {
		t.Error("unset scope flags must be omitted from the wire body")
	}
}

func mustNum(t *testing.T, v Value) float64 {
	t.Helper()
	n, ok := v.NumberVal()
	if !ok {
		t.Fatalf("value is %s, want number", v.Kind())
	}
	return n
}

func mustStr(t *testing.T, v Value) string {
	t.Helper()
	s, ok := v.StringVal()
	if !ok {
		t.Fatalf("value is %s, want string", v.Kind())
	}
	return s
}
