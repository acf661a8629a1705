package models

import (
	"encoding/json"
	"testing"
)

func TestFlexValuesScalarOrArray(t *testing.T) {
	var req BatchRequest
	body := `{"model":"black-scholes","is_call":true,"spot":[90,100,110],"strike":100,"time_to_expiry":1,"rate":0.05,"volatility":0.2}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Spot.Many || len(req.Spot.Values) != 3 {
		t.Errorf("spot should parse as an array of 3, got %+v", req.Spot)
	}
	if req.Strike.Many || req.Strike.Scalar != 100 {
		t.Errorf("strike should parse as scalar 100, got %+v", req.Strike)
	}
	if req.IsCall.Many || !req.IsCall.Scalar {
		t.Errorf("is_call should parse as scalar true, got %+v", req.IsCall)
	}
	if req.Dividend.Set {
		t.Error("dividend should report unset when absent")
	}
}

func TestFlexBoolsArray(t *testing.T) {
	var req BatchRequest
	body := `{"is_call":[true,false,true],"spot":100,"strike":100,"time_to_expiry":1,"rate":0.05,"volatility":0.2}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.IsCall.Many || len(req.IsCall.Values) != 3 {
		t.Errorf("is_call should parse as an array of 3, got %+v", req.IsCall)
	}
}

func TestValidateMissingFields(t *testing.T) {
	var req BatchRequest
	body := `{"model":"black-scholes","is_call":true,"spot":100,"strike":100,"time_to_expiry":1,"rate":0.05}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := req.Validate(true, false); err == nil {
		t.Error("expected error for missing volatility")
	}
	if err := req.Validate(false, false); err != nil {
		t.Errorf("unexpected error when volatility not required: %v", err)
	}
	if err := req.Validate(false, true); err == nil {
		t.Error("expected error for missing price")
	}
}
