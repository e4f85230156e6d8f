package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SeedWay is one reference entry used to populate missing counters.
type SeedWay struct {
	WayID int64
	Label string
}

// seedItem is the full native item written for a missing way. Both
// logical aliases are stored regardless of which one is the true primary
// key, so the projection and key resolution work either way.
type seedItem struct {
	WayID int64  `dynamodbav:"wayId"`
	Key   string `dynamodbav:"key"`
	Label string `dynamodbav:"label"`
	Value int64  `dynamodbav:"value"`
}

// SeedMissing creates a counter for every reference way not yet present
// in the table. Writes are create-only: a conditional put guarantees that
// two processes racing to seed the same way leave exactly one item, and
// the loser's rejection is logged, not fatal. Per-item failures are
// skipped; only schema resolution or the existence scan abort the batch.
func (s *Store) SeedMissing(ctx context.Context, ways []SeedWay) error {
	if len(ways) == 0 {
		return nil
	}

	schema, err := s.Schema(ctx)
	if err != nil {
		return err
	}

	existing, err := s.existingWayIDs(ctx)
	if err != nil {
		return err
	}

	created := 0
	for _, w := range ways {
		if _, ok := existing[w.WayID]; ok {
			continue
		}
		if err := s.createWay(ctx, schema, w); err != nil {
			var condErr *types.ConditionalCheckFailedException
			if errors.As(err, &condErr) {
				// Another process seeded this way first.
				s.logger.Info("way already seeded", "wayId", w.WayID)
				continue
			}
			s.logger.Error("seed way failed", "wayId", w.WayID, "error", err)
			continue
		}
		created++
	}

	s.logger.Info("seeding complete",
		"table", s.config.Table,
		"reference", len(ways),
		"existing", len(existing),
		"created", created,
	)
	return nil
}

// existingWayIDs scans the table projecting only identifying attributes
// and returns the set of numeric identifiers already present.
func (s *Store) existingWayIDs(ctx context.Context) (map[int64]struct{}, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(
			expression.Name("wayId"),
			expression.Name("key"),
		)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build projection: %w", err)
	}

	ids := make(map[int64]struct{})
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(s.config.Table),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.config.Table, err)
		}
		for _, item := range page.Items {
			if id, ok := wayIDFromItem(item); ok {
				ids[id] = struct{}{}
			}
		}
	}
	return ids, nil
}

// wayIDFromItem extracts the numeric identifier from a projected item,
// falling back to the "way-<n>" convention of the string key.
func wayIDFromItem(item map[string]types.AttributeValue) (int64, bool) {
	if id, ok := numberAttr(item, "wayId"); ok {
		return id, true
	}
	k := stringAttr(item, "key")
	if rest, ok := strings.CutPrefix(k, "way-"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}

// createWay writes one full native item guarded by the absence of the
// partition-key attribute.
func (s *Store) createWay(ctx context.Context, schema *TableSchema, w SeedWay) error {
	label := w.Label
	if label == "" {
		label = fmt.Sprintf("Way %d", w.WayID)
	}
	logicalKey := fmt.Sprintf("way-%d", w.WayID)

	item, err := attributevalue.MarshalMap(seedItem{
		WayID: w.WayID,
		Key:   logicalKey,
		Label: label,
		Value: 0,
	})
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	// Overlay the schema's key attributes with correctly typed values.
	// Both aliases are always available here, so resolution cannot fail.
	pk := BuildKey(schema, Candidates{WayID: &w.WayID, Key: &logicalKey})
	if pk == nil {
		return fmt.Errorf("key schema unsatisfiable for way %d", w.WayID)
	}
	for name, av := range pk {
		item[name] = av
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.config.Table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": schema.Partition.Name},
	})
	return err
}
