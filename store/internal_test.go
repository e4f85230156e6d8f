package store

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// --- projectCounter Tests ---

func TestProjectCounter_Full(t *testing.T) {
	item := map[string]types.AttributeValue{
		"key":   &types.AttributeValueMemberS{Value: "way-7"},
		"wayId": &types.AttributeValueMemberN{Value: "7"},
		"label": &types.AttributeValueMemberS{Value: "Main St"},
		"value": &types.AttributeValueMemberN{Value: "3"},
	}
	c := projectCounter(item)
	if c.Key != "way-7" || c.ID != 7 || c.Label != "Main St" || c.Value != 3 {
		t.Errorf("unexpected projection: %+v", c)
	}
}

func TestProjectCounter_Defaults(t *testing.T) {
	item := map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: "way-1"},
	}
	c := projectCounter(item)
	if c.Label != "" {
		t.Errorf("expected empty label, got %q", c.Label)
	}
	if c.Value != 0 {
		t.Errorf("expected value 0, got %d", c.Value)
	}
}

func TestProjectCounter_IDFallsBackToIDAttr(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberN{Value: "9"},
	}
	if c := projectCounter(item); c.ID != 9 {
		t.Errorf("expected id 9, got %d", c.ID)
	}
}

func TestProjectCounter_StringTypedNumbers(t *testing.T) {
	// Some tables store the numeric id as a string attribute.
	item := map[string]types.AttributeValue{
		"wayId": &types.AttributeValueMemberS{Value: "12"},
		"key":   &types.AttributeValueMemberN{Value: "12"},
	}
	c := projectCounter(item)
	if c.ID != 12 {
		t.Errorf("expected id 12, got %d", c.ID)
	}
	if c.Key != "12" {
		t.Errorf("expected key \"12\", got %q", c.Key)
	}
}

// --- coerceKeyValue Tests ---

func TestCoerceKeyValue(t *testing.T) {
	tests := []struct {
		name     string
		cand     candidate
		attrType types.ScalarAttributeType
		want     string
		wantOK   bool
	}{
		{"string to S", candidate{str: "way-7"}, types.ScalarAttributeTypeS, "way-7", true},
		{"number to S", candidate{num: 7, numeric: true}, types.ScalarAttributeTypeS, "7", true},
		{"number to N", candidate{num: 7, numeric: true}, types.ScalarAttributeTypeN, "7", true},
		{"digit string to N", candidate{str: "42"}, types.ScalarAttributeTypeN, "42", true},
		{"negative string to N", candidate{str: "-3"}, types.ScalarAttributeTypeN, "-3", true},
		{"non-numeric string to N", candidate{str: "way-7"}, types.ScalarAttributeTypeN, "", false},
		{"empty string to N", candidate{str: ""}, types.ScalarAttributeTypeN, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, ok := coerceKeyValue(tt.cand, tt.attrType)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if got := rawAttrValue(av); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func rawAttrValue(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

// --- wayIDFromItem Tests ---

func TestWayIDFromItem(t *testing.T) {
	tests := []struct {
		name   string
		item   map[string]types.AttributeValue
		want   int64
		wantOK bool
	}{
		{
			"numeric wayId",
			map[string]types.AttributeValue{"wayId": &types.AttributeValueMemberN{Value: "4"}},
			4, true,
		},
		{
			"derived from key",
			map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: "way-12"}},
			12, true,
		},
		{
			"wayId wins over key",
			map[string]types.AttributeValue{
				"wayId": &types.AttributeValueMemberN{Value: "4"},
				"key":   &types.AttributeValueMemberS{Value: "way-12"},
			},
			4, true,
		},
		{
			"unconventional key",
			map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: "main-street"}},
			0, false,
		},
		{
			"empty item",
			map[string]types.AttributeValue{},
			0, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := wayIDFromItem(tt.item)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

// --- Config Tests ---

func TestConfigValidate_Defaults(t *testing.T) {
	var cfg Config
	cfg.validate()
	if cfg.Table != "WayConfig" {
		t.Errorf("expected table 'WayConfig', got %q", cfg.Table)
	}
	if cfg.MaxValue != 100 {
		t.Errorf("expected max value 100, got %d", cfg.MaxValue)
	}
}

func TestConfigValidate_PreservesCustomValues(t *testing.T) {
	cfg := Config{Table: "Ways", MaxValue: 7}
	cfg.validate()
	if cfg.Table != "Ways" || cfg.MaxValue != 7 {
		t.Errorf("expected custom values preserved, got %+v", cfg)
	}
}

func TestConfigValidate_NonPositiveMax(t *testing.T) {
	cfg := Config{MaxValue: -5}
	cfg.validate()
	if cfg.MaxValue != 100 {
		t.Errorf("expected max value reset to 100, got %d", cfg.MaxValue)
	}
}
