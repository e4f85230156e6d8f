package store

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Candidates is the request-scoped bundle of client-supplied identifiers
// used during key resolution. Nil fields are absent.
type Candidates struct {
	// WayID is the logical numeric identifier.
	WayID *int64

	// ID is an alias of WayID; clients may supply either.
	ID *int64

	// Key is the logical string identifier, conventionally "way-<wayId>".
	Key *string
}

// normalized cross-fills the wayId/id aliases so either one satisfies
// a schema attribute named after the other.
func (c Candidates) normalized() Candidates {
	if c.WayID == nil {
		c.WayID = c.ID
	}
	if c.ID == nil {
		c.ID = c.WayID
	}
	return c
}

// candidate is one raw client value with its source type.
type candidate struct {
	str     string
	num     int64
	numeric bool
}

// lookup returns the candidate for a logical alias name. Attribute names
// that are not aliases have no candidate.
func (c Candidates) lookup(name string) (candidate, bool) {
	switch name {
	case "key":
		if c.Key != nil {
			return candidate{str: *c.Key}, true
		}
	case "wayId":
		if c.WayID != nil {
			return candidate{num: *c.WayID, numeric: true}, true
		}
	case "id":
		if c.ID != nil {
			return candidate{num: *c.ID, numeric: true}, true
		}
	}
	return candidate{}, false
}

// BuildKey maps client candidates onto the table's primary-key schema.
//
// For the partition key the best candidate is chosen in priority order:
// exact attribute-name match, then key, then wayId, then id. The sort key,
// if the schema has one, is resolved from an exact attribute-name match
// with id as the residual candidate.
//
// The returned key, if non-nil, carries exactly the attributes the schema
// requires with correctly typed values; a partial key is never returned.
// BuildKey performs no I/O.
func BuildKey(schema *TableSchema, cand Candidates) PK {
	cand = cand.normalized()

	key := PK{}
	av, ok := resolveKeyAttr(schema.Partition, cand, []string{schema.Partition.Name, "key", "wayId", "id"})
	if !ok {
		return nil
	}
	key[schema.Partition.Name] = av

	if schema.Sort != nil {
		av, ok := resolveKeyAttr(*schema.Sort, cand, []string{schema.Sort.Name, "id"})
		if !ok {
			return nil
		}
		key[schema.Sort.Name] = av
	}
	return key
}

// resolveKeyAttr tries each alias in priority order and returns the first
// candidate that coerces to the attribute's stored type.
func resolveKeyAttr(attr KeyAttribute, cand Candidates, priority []string) (types.AttributeValue, bool) {
	for _, alias := range priority {
		c, ok := cand.lookup(alias)
		if !ok {
			continue
		}
		if av, ok := coerceKeyValue(c, attr.Type); ok {
			return av, true
		}
	}
	return nil, false
}

// coerceKeyValue converts a candidate to the attribute's stored type.
// String attributes take any candidate; numeric attributes take numeric
// candidates and decimal-integer strings, anything else is unusable.
func coerceKeyValue(c candidate, t types.ScalarAttributeType) (types.AttributeValue, bool) {
	if t == types.ScalarAttributeTypeS {
		if c.numeric {
			return &types.AttributeValueMemberS{Value: strconv.FormatInt(c.num, 10)}, true
		}
		return &types.AttributeValueMemberS{Value: c.str}, true
	}

	if c.numeric {
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(c.num, 10)}, true
	}
	if _, err := strconv.ParseInt(c.str, 10, 64); err == nil {
		return &types.AttributeValueMemberN{Value: c.str}, true
	}
	return nil, false
}

// keyFromItem reconstructs a full native key from a stored item's actual
// attribute values, converting each through the schema's declared type.
// Returns nil if the item is missing a key attribute.
func keyFromItem(schema *TableSchema, item map[string]types.AttributeValue) PK {
	key := PK{}
	attrs := []KeyAttribute{schema.Partition}
	if schema.Sort != nil {
		attrs = append(attrs, *schema.Sort)
	}
	for _, attr := range attrs {
		raw := rawAttrString(item, attr.Name)
		if raw == "" {
			return nil
		}
		if attr.Type == types.ScalarAttributeTypeS {
			key[attr.Name] = &types.AttributeValueMemberS{Value: raw}
		} else {
			key[attr.Name] = &types.AttributeValueMemberN{Value: raw}
		}
	}
	return key
}

// rawAttrString returns the scalar content of an S or N attribute.
func rawAttrString(item map[string]types.AttributeValue, name string) string {
	switch v := item[name].(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}
