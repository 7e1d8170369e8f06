package models

import (
	"encoding/json"
	"testing"
)

func TestMonitorUnmarshalActiveVariants(t *testing.T) {
	cases := map[string]bool{
		`{"id":1,"active":true}`:  true,
		`{"id":1,"active":1}`:     true,
		`{"id":1,"active":"1"}`:   true,
		`{"id":1,"active":false}`: false,
		`{"id":1,"active":0}`:     false,
		`{"id":1,"active":null}`:  false,
	}

	for payload, want := range cases {
		var m Monitor
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", payload, err)
		}

		if bool(m.Active) != want {
			t.Fatalf("payload %s: expected active=%v, got %v", payload, want, m.Active)
		}
	}
}

func TestFlexNumbersAcceptStrings(t *testing.T) {
	var args struct {
		ID      FlexInt   `json:"id"`
		Percent FlexFloat `json:"percent"`
	}

	if err := json.Unmarshal([]byte(`{"id":"7","percent":"0.9985"}`), &args); err != nil {
		t.Fatalf("unmarshal string numbers: %v", err)
	}

	if args.ID != 7 || args.Percent != 0.9985 {
		t.Fatalf("unexpected values: %+v", args)
	}

	if err := json.Unmarshal([]byte(`{"id":3,"percent":1}`), &args); err != nil {
		t.Fatalf("unmarshal numbers: %v", err)
	}

	if args.ID != 3 || args.Percent != 1 {
		t.Fatalf("unexpected values: %+v", args)
	}
}

func TestFlexIntRejectsNonNumeric(t *testing.T) {
	var v FlexInt
	if err := json.Unmarshal([]byte(`"1y"`), &v); err == nil {
		t.Fatal("expected error for non-numeric period")
	}
}
