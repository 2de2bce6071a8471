package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"cargo-chat/internal/domain"
)

const (
	pkPrefixShipment     = "SHIPMENT#"
	skShipment           = "META"
	DefaultCustomerIndex = "customer-index"
)

// DynamoDBAPI is the minimal DynamoDB interface required by DynamoStore.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore reads shipments from a single table keyed by SHIPMENT#<id>, with
// a customerId/createdAt secondary index for per-customer listings.
type DynamoStore struct {
	api           DynamoDBAPI
	tableName     string
	customerIndex string
}

func NewDynamoStore(api DynamoDBAPI, tableName, customerIndex string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(customerIndex) == "" {
		customerIndex = DefaultCustomerIndex
	}
	return &DynamoStore{api: api, tableName: tableName, customerIndex: customerIndex}, nil
}

func shipmentPK(id uuid.UUID) string {
	return pkPrefixShipment + id.String()
}

// GetByID returns (nil, nil) when the item does not exist.
func (s *DynamoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: shipmentPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skShipment},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetByID get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	sh, err := itemToShipment(out.Item)
	if err != nil {
		return nil, fmt.Errorf("repository: GetByID unmarshal: %w", err)
	}
	return &sh, nil
}

// ListByCustomer returns one page of the customer's shipments, newest first.
// Earlier pages are read and discarded since the index has no offset.
func (s *DynamoStore) ListByCustomer(ctx context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Shipment], error) {
	page = page.Normalize()
	skip := page.Offset()
	items := make([]domain.Shipment, 0, page.PageSize)

	var startKey map[string]types.AttributeValue
	for len(items) < page.PageSize {
		out, err := s.api.Query(ctx, s.customerQuery(customerID, startKey, int32(skip+page.PageSize-len(items))))
		if err != nil {
			return domain.Page[domain.Shipment]{}, fmt.Errorf("repository: ListByCustomer query: %w", err)
		}
		for _, item := range out.Items {
			if skip > 0 {
				skip--
				continue
			}
			if len(items) == page.PageSize {
				break
			}
			sh, err := itemToShipment(item)
			if err != nil {
				return domain.Page[domain.Shipment]{}, fmt.Errorf("repository: ListByCustomer unmarshal: %w", err)
			}
			items = append(items, sh)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	total, err := s.countByCustomer(ctx, customerID)
	if err != nil {
		return domain.Page[domain.Shipment]{}, err
	}
	return domain.Page[domain.Shipment]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: total,
	}, nil
}

func (s *DynamoStore) customerQuery(customerID string, startKey map[string]types.AttributeValue, limit int32) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.customerIndex),
		KeyConditionExpression: aws.String("customerId = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: customerID},
		},
		// Index sort key is createdAt; newest first.
		ScanIndexForward:  aws.Bool(false),
		ExclusiveStartKey: startKey,
		Limit:             aws.Int32(limit),
	}
}

func (s *DynamoStore) countByCustomer(ctx context.Context, customerID string) (int, error) {
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		in := s.customerQuery(customerID, startKey, 0)
		in.Limit = nil
		in.Select = types.SelectCount
		out, err := s.api.Query(ctx, in)
		if err != nil {
			return 0, fmt.Errorf("repository: ListByCustomer count: %w", err)
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (s *DynamoStore) Close() error { return nil }

func itemToShipment(item map[string]types.AttributeValue) (domain.Shipment, error) {
	rawID, err := strAttr(item, "id")
	if err != nil {
		return domain.Shipment{}, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("repository: parse attribute \"id\": %w", err)
	}
	customerID, err := strAttr(item, "customerId")
	if err != nil {
		return domain.Shipment{}, err
	}
	status, err := strAttr(item, "status")
	if err != nil {
		return domain.Shipment{}, err
	}
	sender, err := partyAttr(item, "sender")
	if err != nil {
		return domain.Shipment{}, err
	}
	receiver, err := partyAttr(item, "receiver")
	if err != nil {
		return domain.Shipment{}, err
	}
	weight, err := floatAttr(item, "weight")
	if err != nil {
		return domain.Shipment{}, err
	}
	createdAt, err := timeAttr(item, "createdAt")
	if err != nil {
		return domain.Shipment{}, err
	}

	return domain.Shipment{
		ID:           id,
		CustomerID:   customerID,
		Status:       domain.ShipmentStatus(status),
		Sender:       sender,
		Receiver:     receiver,
		Category:     optStrAttr(item, "category"),
		Weight:       weight,
		Priority:     optStrAttr(item, "priority"),
		HasInsurance: optBoolAttr(item, "hasInsurance"),
		Description:  optStrAttr(item, "description"),
		CreatedAt:    createdAt,
	}, nil
}

func partyAttr(item map[string]types.AttributeValue, key string) (domain.Party, error) {
	v, ok := item[key]
	if !ok {
		return domain.Party{}, fmt.Errorf("repository: missing attribute %q", key)
	}
	m, ok := v.(*types.AttributeValueMemberM)
	if !ok {
		return domain.Party{}, fmt.Errorf("repository: attribute %q is not a map", key)
	}
	return domain.Party{
		Name:    optStrAttr(m.Value, "name"),
		Email:   optStrAttr(m.Value, "email"),
		Planet:  optStrAttr(m.Value, "planet"),
		Station: optStrAttr(m.Value, "station"),
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optStrAttr(item map[string]types.AttributeValue, key string) string {
	s, _ := strAttr(item, key)
	return s
}

func optBoolAttr(item map[string]types.AttributeValue, key string) bool {
	b, ok := item[key].(*types.AttributeValueMemberBOOL)
	return ok && b.Value
}

func floatAttr(item map[string]types.AttributeValue, key string) (float64, error) {
	v, ok := item[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	raw, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return ts, nil
}
