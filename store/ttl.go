package store

import (
	"maps"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Deleted tickets and relationship records carry a ttl attribute holding a
// unix time. An item is deleted once that time has been reached; DynamoDB
// removes it for good some time later.

// expiry returns the ttl of item, if it has a numeric one.
func expiry(item map[string]types.AttributeValue) (int64, bool) {
	attr, ok := item["ttl"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	ttl, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return ttl, true
}

// IsDeleted reports whether item's ttl has been reached.
func IsDeleted(item map[string]types.AttributeValue) bool {
	ttl, ok := expiry(item)
	return ok && ttl <= time.Now().Unix()
}

// cascadeFromAttr names the ancestor whose delete the stream handler copied
// onto a ticket. Tickets deleted directly do not carry it.
const cascadeFromAttr = "cascade_from"

func expiredByCascade(item map[string]types.AttributeValue) bool {
	_, ok := item[cascadeFromAttr].(*types.AttributeValueMemberN)
	return ok
}

// TTLFilterExpr is the filter expression that drops deleted items. It uses
// the #ttl name and the :now value.
func TTLFilterExpr() string {
	return "attribute_not_exists(#ttl) OR #ttl > :now"
}

// ActiveCondition is the condition expression for a ticket that exists and
// is not deleted.
func ActiveCondition() string {
	return "attribute_exists(id) AND (" + TTLFilterExpr() + ")"
}

func ttlNames() map[string]string {
	return map[string]string{"#ttl": "ttl"}
}

func nowValue() types.AttributeValue {
	return numberValue(time.Now().Unix())
}

func mergeExprNames(sets ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, set := range sets {
		maps.Copy(merged, set)
	}
	return merged
}
