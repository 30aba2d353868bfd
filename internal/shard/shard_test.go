package shard

import (
	"strings"
	"testing"
)

func TestRef(t *testing.T) {
	if got := Ref(42); got != "ticket#42" {
		t.Errorf("expected 'ticket#42', got %q", got)
	}
}

func TestRelationshipPK_SingleShard(t *testing.T) {
	// With numShards=1, all records should go to shard "00"
	tests := []struct {
		parentID int64
		childID  int64
		expected string
	}{
		{1, 2, "ticket#1#00"},
		{1, 3, "ticket#1#00"},
		{7, 2, "ticket#7#00"},
		{12345, 99999, "ticket#12345#00"},
	}

	for _, tt := range tests {
		result := RelationshipPK(tt.parentID, tt.childID, 1)
		if result != tt.expected {
			t.Errorf("RelationshipPK(%d, %d, 1) = %q, want %q",
				tt.parentID, tt.childID, result, tt.expected)
		}
	}
}

func TestRelationshipPK_ZeroShards(t *testing.T) {
	// Zero or negative shards should be treated as 1
	if result := RelationshipPK(1, 2, 0); result != "ticket#1#00" {
		t.Errorf("expected 'ticket#1#00', got %q", result)
	}
	if result := RelationshipPK(1, 2, -1); result != "ticket#1#00" {
		t.Errorf("expected 'ticket#1#00', got %q", result)
	}
}

func TestRelationshipPK_MultipleShards(t *testing.T) {
	// With numShards=256, different children should spread over many shards
	numShards := 256
	shardCounts := make(map[string]int)
	for child := int64(1); child <= 1000; child++ {
		pk := RelationshipPK(1, child, numShards)
		if !strings.HasPrefix(pk, "ticket#1#") {
			t.Fatalf("expected prefix 'ticket#1#', got %q", pk)
		}
		shardCounts[pk]++
	}

	// Should have distribution across multiple shards (not all in one)
	if len(shardCounts) < 10 {
		t.Errorf("expected distribution across multiple shards, got only %d unique shards", len(shardCounts))
	}
}

func TestRelationshipPK_Deterministic(t *testing.T) {
	for child := int64(1); child <= 100; child++ {
		a := RelationshipPK(5, child, 32)
		b := RelationshipPK(5, child, 32)
		if a != b {
			t.Errorf("expected stable key for child %d, got %q and %q", child, a, b)
		}
	}
}

func TestOf_Bounds(t *testing.T) {
	for _, n := range []int{2, 16, 256, 1000} {
		limit := n
		if limit > MaxShards {
			limit = MaxShards
		}
		for child := int64(1); child <= 500; child++ {
			s := Of(child, n)
			if s < 0 || s >= limit {
				t.Fatalf("Of(%d, %d) = %d, out of range", child, n, s)
			}
		}
	}
}

func TestPK_HexSuffix(t *testing.T) {
	if got := PK(3, 255); got != "ticket#3#ff" {
		t.Errorf("expected 'ticket#3#ff', got %q", got)
	}
	if got := PK(3, 10); got != "ticket#3#0a" {
		t.Errorf("expected 'ticket#3#0a', got %q", got)
	}
}
