package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyAttribute describes a single attribute of the table's primary key.
type KeyAttribute struct {
	// Name is the attribute name (e.g., "wayId").
	Name string

	// Type is the stored scalar type, "S" or "N".
	Type types.ScalarAttributeType
}

// TableSchema is the discovered primary-key shape of the counter table.
type TableSchema struct {
	// Partition is the HASH key attribute.
	Partition KeyAttribute

	// Sort is the RANGE key attribute, nil for simple primary keys.
	Sort *KeyAttribute
}

// Schema returns the table's primary-key schema, describing the table on
// first call and serving the cached value thereafter. A failed first call
// is retried on the next call; once resolved, the schema is immutable for
// the process lifetime.
func (s *Store) Schema(ctx context.Context) (*TableSchema, error) {
	s.mu.Lock()
	cached := s.schema
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.Table),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: describe %s: %v", ErrSchemaUnavailable, s.config.Table, err)
	}
	if out.Table == nil {
		return nil, fmt.Errorf("%w: describe %s returned no description", ErrSchemaUnavailable, s.config.Table)
	}

	schema, err := schemaFromDescription(out.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}

	s.mu.Lock()
	// Concurrent first calls may race here; both compute the same schema,
	// so an idempotent overwrite is fine.
	s.schema = schema
	s.mu.Unlock()

	s.logger.Debug("resolved table schema",
		"table", s.config.Table,
		"partition", schema.Partition.Name,
		"hasSort", schema.Sort != nil,
	)
	return schema, nil
}

// schemaFromDescription partitions the table's key schema into partition
// and optional sort attributes, annotated with their stored types.
func schemaFromDescription(table *types.TableDescription) (*TableSchema, error) {
	attrTypes := make(map[string]types.ScalarAttributeType, len(table.AttributeDefinitions))
	for _, ad := range table.AttributeDefinitions {
		if ad.AttributeName != nil {
			attrTypes[*ad.AttributeName] = ad.AttributeType
		}
	}

	schema := &TableSchema{}
	for _, ks := range table.KeySchema {
		if ks.AttributeName == nil {
			continue
		}
		attr := KeyAttribute{
			Name: *ks.AttributeName,
			Type: attrTypes[*ks.AttributeName],
		}
		if attr.Type == "" {
			// Key attributes are always declared; treat a gap as string.
			attr.Type = types.ScalarAttributeTypeS
		}
		switch ks.KeyType {
		case types.KeyTypeHash:
			schema.Partition = attr
		case types.KeyTypeRange:
			sort := attr
			schema.Sort = &sort
		}
	}

	if schema.Partition.Name == "" {
		return nil, fmt.Errorf("no HASH key in key schema")
	}
	return schema, nil
}
