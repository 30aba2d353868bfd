// Package shard computes partition keys for the sharded relationship table.
package shard

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// MaxShards is the largest supported shard count; shard suffixes are two hex digits.
const MaxShards = 256

// Ref returns the type-qualified reference of a ticket (e.g. "ticket#42").
func Ref(id int64) string {
	return "ticket#" + strconv.FormatInt(id, 10)
}

// Of returns the shard a child is stored in below its parent.
// With numShards<=1 everything lives in shard 0.
func Of(childID int64, numShards int) int {
	if numShards <= 1 {
		return 0
	}
	if numShards > MaxShards {
		numShards = MaxShards
	}
	h := fnv.New32a()
	h.Write([]byte(Ref(childID)))
	return int(h.Sum32() % uint32(numShards))
}

// PK returns the partition key of one shard of a parent's children.
func PK(parentID int64, shard int) string {
	return fmt.Sprintf("%s#%02x", Ref(parentID), shard)
}

// RelationshipPK computes the partition key of the relationship record that
// links childID to parentID.
func RelationshipPK(parentID, childID int64, numShards int) string {
	return PK(parentID, Of(childID, numShards))
}
