package models

import (
	"encoding/json"
	"testing"
)

func TestFileRefsValueStoresNullWhenEmpty(t *testing.T) {
	v, err := FileRefs(nil).Value()
	if err != nil || v != nil {
		t.Fatalf("expected nil value for empty refs, got %v, %v", v, err)
	}

	v, err = FileRefs{"a.jpg", "b&c.jpg"}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != `["a.jpg","b&c.jpg"]` {
		t.Fatalf("unexpected encoding %v", v)
	}
}

func TestFileRefsScan(t *testing.T) {
	var refs FileRefs
	if err := refs.Scan([]byte(`["x.png","y.png"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(refs) != 2 || refs[1] != "y.png" {
		t.Fatalf("unexpected refs %v", refs)
	}
	if err := refs.Scan(nil); err != nil || refs != nil {
		t.Fatalf("expected nil refs after NULL scan, got %v %v", refs, err)
	}
	if err := refs.Scan(42); err == nil {
		t.Fatal("expected error scanning an int")
	}
}

func TestFileRefsCleanDropsBlank(t *testing.T) {
	got := FileRefs{" ", "", " https://cdn.example.com/a.jpg ", "\t"}.Clean()
	if len(got) != 1 || got[0] != "https://cdn.example.com/a.jpg" {
		t.Fatalf("unexpected cleaned refs %q", got)
	}
	if FileRefs([]string{"  "}).Clean() != nil {
		t.Fatal("blank-only refs should clean to nil")
	}
}

func TestParseCarrierResult(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantAWB string
		hasAWB  bool
		wantErr bool
	}{
		{name: "awb present", raw: `{"data":{"awb_number":"AWB123","current_status":"In Transit"}}`, wantAWB: "AWB123", hasAWB: true},
		{name: "awb missing", raw: `{"data":{"current_status":"Pending"}}`},
		{name: "data missing", raw: `{"status":true}`},
		{name: "awb blank", raw: `{"data":{"awb_number":"  "}}`},
		{name: "invalid json", raw: `{"data":`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCarrierResult([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			awb := result.AWB()
			if tc.hasAWB != (awb != nil) {
				t.Fatalf("awb presence mismatch: %v", awb)
			}
			if tc.hasAWB && *awb != tc.wantAWB {
				t.Fatalf("expected %s, got %s", tc.wantAWB, *awb)
			}
		})
	}
}

func TestCarrierResultStatus(t *testing.T) {
	r, _ := ParseCarrierResult([]byte(`{"data":{"current_status":"rto delivered"}}`))
	if !r.IsRTODelivered() || r.IsDelivered() {
		t.Fatalf("expected RTO delivered only")
	}
	r, _ = ParseCarrierResult([]byte(`{"data":{"current_status":"Delivered"}}`))
	if !r.IsDelivered() || r.IsRTODelivered() {
		t.Fatalf("expected delivered only")
	}
}

func TestParseEnums(t *testing.T) {
	if st, err := ParseOrderStatus(" Shipped "); err != nil || st != OrderStatusShipped {
		t.Fatalf("unexpected %v %v", st, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	if r, err := ParseActorRole("SUPPLIER"); err != nil || r != RoleSupplier {
		t.Fatalf("unexpected %v %v", r, err)
	}
	if _, err := ParseActorRole("guest"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestOrderIDsSerializeAsStrings(t *testing.T) {
	o := Order{ID: 1 << 60, OrderNumber: "ABC"}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["id"] != "1152921504606846976" {
		t.Fatalf("expected id as decimal string, got %#v", decoded["id"])
	}
	if decoded["dropshipper_id"] != "0" {
		t.Fatalf("expected dropshipper_id as string, got %#v", decoded["dropshipper_id"])
	}
}

func TestDisputeLevel(t *testing.T) {
	o := Order{}
	if o.DisputeLevel() != DisputeCaseNone {
		t.Fatal("expected level 0")
	}
	two := DisputeCase2
	o.DisputeCase = &two
	if o.DisputeLevel() != 2 {
		t.Fatal("expected level 2")
	}
}
