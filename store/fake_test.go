package store_test

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeSchema configures the primary-key shape the fake table reports.
type fakeSchema struct {
	partitionName string
	partitionType types.ScalarAttributeType
	sortName      string
	sortType      types.ScalarAttributeType
}

// fakeDynamo is an in-memory stand-in for the DynamoDB client. It
// understands exactly the expressions the store issues: the bounded
// counter update, single-equality scan filters and create-only puts.
// All operations hold one mutex, so conditional updates are atomic the
// way the real service's are.
type fakeDynamo struct {
	mu     sync.Mutex
	schema fakeSchema
	items  []map[string]types.AttributeValue

	describeErr error
	scanErr     error
	updateErr   error
	putErr      error

	describeCalls int
	scanCalls     int
	updateCalls   int
	putCalls      int
}

func newFakeDynamo(schema fakeSchema) *fakeDynamo {
	return &fakeDynamo{schema: schema}
}

func (f *fakeDynamo) addItem(item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
}

func (f *fakeDynamo) findByKey(key map[string]types.AttributeValue) map[string]types.AttributeValue {
	for _, item := range f.items {
		match := true
		for name, want := range key {
			if !attrEqual(item[name], want) {
				match = false
				break
			}
		}
		if match {
			return item
		}
	}
	return nil
}

// primaryKeyOf extracts an item's primary key per the fake schema.
func (f *fakeDynamo) primaryKeyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		f.schema.partitionName: item[f.schema.partitionName],
	}
	if f.schema.sortName != "" {
		key[f.schema.sortName] = item[f.schema.sortName]
	}
	return key
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}

	desc := &types.TableDescription{
		TableName: in.TableName,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(f.schema.partitionName), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(f.schema.partitionName), AttributeType: f.schema.partitionType},
		},
	}
	if f.schema.sortName != "" {
		desc.KeySchema = append(desc.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(f.schema.sortName), KeyType: types.KeyTypeRange,
		})
		desc.AttributeDefinitions = append(desc.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(f.schema.sortName), AttributeType: f.schema.sortType,
		})
	}
	return &dynamodb.DescribeTableOutput{Table: desc}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	if f.scanErr != nil {
		return nil, f.scanErr
	}

	// Limit bounds the items examined, not the items matched; the
	// filter runs afterwards, as on the real service.
	scanned := f.items
	if in.Limit != nil && len(scanned) > int(*in.Limit) {
		scanned = scanned[:int(*in.Limit)]
	}
	var matched []map[string]types.AttributeValue
	for _, item := range scanned {
		if in.FilterExpression != nil {
			name, want := singleEquality(*in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
			if !attrEqual(item[name], want) {
				continue
			}
		}
		matched = append(matched, item)
	}
	// Projections are not narrowed; callers only read the attributes
	// they asked for.
	return &dynamodb.ScanOutput{Items: matched}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}

	valueAttr := in.ExpressionAttributeNames["#v"]
	item := f.findByKey(in.Key)

	var current int64
	exists := false
	if item != nil {
		if n, ok := item[valueAttr].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.ParseInt(n.Value, 10, 64)
			exists = true
		}
	}

	cond := aws.ToString(in.ConditionExpression)
	switch {
	case strings.Contains(cond, "attribute_not_exists(#v)"):
		limit := numValue(in.ExpressionAttributeValues[":limit"])
		if exists && current > limit {
			return nil, condFailed()
		}
	case strings.Contains(cond, "attribute_exists(#v)"):
		floor := numValue(in.ExpressionAttributeValues[":floor"])
		if !exists || current < floor {
			return nil, condFailed()
		}
	}

	delta := numValue(in.ExpressionAttributeValues[":d"])
	if item == nil {
		item = map[string]types.AttributeValue{}
		for name, av := range in.Key {
			item[name] = av
		}
		f.items = append(f.items, item)
	}
	item[valueAttr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}

	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return nil, f.putErr
	}

	if in.ConditionExpression != nil {
		// Create-only put: the condition targets the item sharing the
		// new item's primary key.
		if f.findByKey(f.primaryKeyOf(in.Item)) != nil {
			return nil, condFailed()
		}
	}
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// singleEquality resolves a "#n = :v" filter produced by the expression
// builder into the attribute name and wanted value.
func singleEquality(expr string, names map[string]string, values map[string]types.AttributeValue) (string, types.AttributeValue) {
	parts := strings.SplitN(expr, " = ", 2)
	if len(parts) != 2 {
		return "", nil
	}
	return names[strings.TrimSpace(parts[0])], values[strings.TrimSpace(parts[1])]
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	}
	return false
}

func numValue(av types.AttributeValue) int64 {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}

func condFailed() error {
	return &types.ConditionalCheckFailedException{
		Message: aws.String("The conditional request failed"),
	}
}
