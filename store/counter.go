package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Counter is the normalized external shape of one way counter,
// independent of the table's internal attribute naming.
type Counter struct {
	Key   string `json:"key"`
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// ApplyDelta atomically adds delta to the counter identified by cand,
// enforcing 0 <= value <= Config.MaxValue with a conditional write.
// Counters absent from the table are treated as 0 before the delta.
//
// When the schema has a sort key the client cannot satisfy but a string
// key was supplied, a single lookup scan recovers the full composite key
// and the update is retried once. The lookup is best-effort and never
// looped.
func (s *Store) ApplyDelta(ctx context.Context, cand Candidates, delta int64) (*Counter, error) {
	if delta == 0 {
		return nil, ErrInvalidDelta
	}

	schema, err := s.Schema(ctx)
	if err != nil {
		return nil, err
	}

	key := BuildKey(schema, cand)
	if key == nil {
		// The partition key alone may be recoverable: someone who knows
		// only the human-meaningful string key should not need to know
		// the table's composite key structure.
		if schema.Sort != nil && cand.Key != nil {
			return s.applyDeltaByLookup(ctx, schema, *cand.Key, delta)
		}
		return nil, ErrKeyUnresolved
	}

	return s.updateCounter(ctx, key, delta)
}

// applyDeltaByLookup finds the item whose logical key attribute matches,
// rebuilds its full native key and retries the update once.
//
// The scan examines at most one item: DynamoDB applies Limit before the
// filter, so on tables holding more than one item the lookup can come
// back empty even when a match exists, depending on scan order. The read
// stays bounded at a single item; a miss surfaces as ErrKeyUnresolved.
func (s *Store) applyDeltaByLookup(ctx context.Context, schema *TableSchema, key string, delta int64) (*Counter, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("key").Equal(expression.Value(key))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build lookup filter: %w", err)
	}

	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.Table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("lookup key %q: %w", key, err)
	}
	if len(out.Items) == 0 {
		return nil, ErrKeyUnresolved
	}

	nativeKey := keyFromItem(schema, out.Items[0])
	if nativeKey == nil {
		return nil, ErrKeyUnresolved
	}

	s.logger.Debug("recovered composite key by lookup", "key", key)
	return s.updateCounter(ctx, nativeKey, delta)
}

// updateCounter issues the conditional atomic update. The guard makes the
// bound check and the write a single operation, so the value invariant is
// never transiently violated under concurrency.
func (s *Store) updateCounter(ctx context.Context, key PK, delta int64) (*Counter, error) {
	if delta > s.config.MaxValue {
		// An absent counter starts at 0, so the guard below cannot catch
		// a first write that alone overshoots the ceiling.
		return nil, ErrAtCeiling
	}

	names := map[string]string{"#v": "value"}
	values := map[string]types.AttributeValue{
		":d":    &types.AttributeValueMemberN{Value: strconv.FormatInt(delta, 10)},
		":zero": &types.AttributeValueMemberN{Value: "0"},
	}

	var cond string
	if delta > 0 {
		cond = "attribute_not_exists(#v) OR #v <= :limit"
		values[":limit"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.config.MaxValue-delta, 10)}
	} else {
		cond = "attribute_exists(#v) AND #v >= :floor"
		values[":floor"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(-delta, 10)}
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.Table),
		Key:                       key,
		UpdateExpression:          aws.String("SET #v = if_not_exists(#v, :zero) + :d"),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			if delta > 0 {
				return nil, ErrAtCeiling
			}
			return nil, ErrAtFloor
		}
		return nil, err
	}

	counter := projectCounter(out.Attributes)
	return &counter, nil
}

// List scans the full table and projects every item into the normalized
// shape. Only the first scan page is read; the dataset is a small fixed
// set of ways, so continuation-token iteration is left as an extension
// point.
func (s *Store) List(ctx context.Context) ([]Counter, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.config.Table),
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.config.Table, err)
	}

	counters := make([]Counter, 0, len(out.Items))
	for _, item := range out.Items {
		counters = append(counters, projectCounter(item))
	}
	return counters, nil
}

// projectCounter converts a raw item to the normalized external shape,
// defaulting absent label to "" and absent value to 0.
func projectCounter(item map[string]types.AttributeValue) Counter {
	c := Counter{
		Key:   rawAttrString(item, "key"),
		Label: stringAttr(item, "label"),
	}
	if id, ok := numberAttr(item, "wayId"); ok {
		c.ID = id
	} else if id, ok := numberAttr(item, "id"); ok {
		c.ID = id
	}
	if v, ok := numberAttr(item, "value"); ok {
		c.Value = v
	}
	return c
}

// stringAttr returns the content of an S attribute, "" if absent.
func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// numberAttr parses an N attribute as an integer. Stored numbers are
// decimal-string encoded; S attributes holding digits are accepted too.
func numberAttr(item map[string]types.AttributeValue, name string) (int64, bool) {
	raw := rawAttrString(item, name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
