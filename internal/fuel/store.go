package fuel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/models"
)

// ErrInvalidEntry marks entries rejected by validation before they reach
// the store.
var ErrInvalidEntry = errors.New("invalid fuel entry")

const defaultStatsMonths = 12

// averagePriceWindow bounds the "recent average price" computation to the
// last N fill-ups.
const averagePriceWindow = 10

// Store persists fuel entries in a DynamoDB table partitioned by user, with
// the entry id as sort key. Aggregations run client-side over the user's
// partition; the document store offers no server-side grouping.
type Store struct {
	client    DynamoDBClient
	tableName string
}

func NewStore(client DynamoDBClient, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	VehicleID string
	StartDate time.Time
	EndDate   time.Time
	Query     string
}

// Create stores a new entry. Missing derived fields are filled in: the id,
// creation time, entry date and the total cost when the caller omits it.
func (s *Store) Create(ctx context.Context, entry *models.FuelEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("%w: entry has no owner", ErrInvalidEntry)
	}
	if entry.Liters <= 0 || entry.PricePerLiter <= 0 {
		return fmt.Errorf("%w: liters and pricePerLiter must be positive", ErrInvalidEntry)
	}

	now := time.Now()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}
	if entry.TotalCost == 0 {
		entry.TotalCost = entry.Liters * entry.PricePerLiter
	}
	if entry.FuelType == "" {
		entry.FuelType = models.FuelPetrol
	}
	entry.CreatedAt = now

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshaling fuel entry: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("putting fuel entry: %w", err)
	}

	log.Debug().
		Str("entry_id", entry.ID).
		Str("user_id", entry.UserID).
		Float64("total_cost", entry.TotalCost).
		Msg("Created fuel entry")

	return nil
}

// List returns the user's entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, userID string, filter ListFilter) ([]models.FuelEntry, error) {
	entries, err := s.queryUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, entry := range entries {
		if filter.VehicleID != "" && (entry.VehicleID == nil || *entry.VehicleID != filter.VehicleID) {
			continue
		}
		if !filter.StartDate.IsZero() && entry.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && entry.Date.After(filter.EndDate) {
			continue
		}
		if filter.Query != "" && !matchesQuery(entry, filter.Query) {
			continue
		}
		filtered = append(filtered, entry)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})

	return filtered, nil
}

// Get fetches a single entry owned by the user.
func (s *Store) Get(ctx context.Context, userID, entryID string) (*models.FuelEntry, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
			"id":     &types.AttributeValueMemberS{Value: entryID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting fuel entry: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var entry models.FuelEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling fuel entry: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry owned by the user. Deleting a missing entry is
// not an error.
func (s *Store) Delete(ctx context.Context, userID, entryID string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
			"id":     &types.AttributeValueMemberS{Value: entryID},
		},
	}); err != nil {
		return fmt.Errorf("deleting fuel entry: %w", err)
	}
	return nil
}

// MonthlyStats groups the user's entries by calendar month, newest month
// first, capped at defaultStatsMonths.
func (s *Store) MonthlyStats(ctx context.Context, userID string) ([]models.MonthlyStat, error) {
	entries, err := s.queryUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	type monthKey struct {
		year  int
		month int
	}
	groups := make(map[monthKey]*models.MonthlyStat)
	for _, entry := range entries {
		key := monthKey{year: entry.Date.Year(), month: int(entry.Date.Month())}
		stat, ok := groups[key]
		if !ok {
			stat = &models.MonthlyStat{Year: key.year, Month: key.month}
			groups[key] = stat
		}
		stat.TotalCost += entry.TotalCost
		stat.TotalLiters += entry.Liters
		stat.AvgPrice += entry.PricePerLiter
		stat.Count++
	}

	stats := make([]models.MonthlyStat, 0, len(groups))
	for _, stat := range groups {
		stat.AvgPrice /= float64(stat.Count)
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Year != stats[j].Year {
			return stats[i].Year > stats[j].Year
		}
		return stats[i].Month > stats[j].Month
	})

	if len(stats) > defaultStatsMonths {
		stats = stats[:defaultStatsMonths]
	}
	return stats, nil
}

// Summary is the all-time rollup plus the most recent entry.
func (s *Store) Summary(ctx context.Context, userID string) (*models.FuelSummary, error) {
	entries, err := s.queryUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.FuelSummary{TotalEntries: len(entries)}
	for i := range entries {
		summary.TotalCost += entries[i].TotalCost
		summary.TotalLiters += entries[i].Liters
		summary.AvgPrice += entries[i].PricePerLiter
		if summary.LastEntry == nil || entries[i].Date.After(summary.LastEntry.Date) {
			summary.LastEntry = &entries[i]
		}
	}
	if len(entries) > 0 {
		summary.AvgPrice /= float64(len(entries))
	}
	return summary, nil
}

// MonthToDate sums cost, liters and fill-up count since the first of the
// month containing now.
func (s *Store) MonthToDate(ctx context.Context, userID string, now time.Time) (cost, liters float64, count int, err error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	entries, err := s.List(ctx, userID, ListFilter{StartDate: monthStart})
	if err != nil {
		return 0, 0, 0, err
	}
	for _, entry := range entries {
		cost += entry.TotalCost
		liters += entry.Liters
	}
	return cost, liters, len(entries), nil
}

// AveragePrice is the mean price per liter over the user's most recent
// fill-ups, bounded by averagePriceWindow. Returns 0 with no entries.
func (s *Store) AveragePrice(ctx context.Context, userID string) (float64, int, error) {
	entries, err := s.List(ctx, userID, ListFilter{})
	if err != nil {
		return 0, 0, err
	}
	if len(entries) > averagePriceWindow {
		entries = entries[:averagePriceWindow]
	}
	if len(entries) == 0 {
		return 0, 0, nil
	}

	var sum float64
	for _, entry := range entries {
		sum += entry.PricePerLiter
	}
	return sum / float64(len(entries)), len(entries), nil
}

// LastEntry returns the user's most recent fill-up, or nil.
func (s *Store) LastEntry(ctx context.Context, userID string) (*models.FuelEntry, error) {
	entries, err := s.List(ctx, userID, ListFilter{})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *Store) queryUser(ctx context.Context, userID string) ([]models.FuelEntry, error) {
	var entries []models.FuelEntry
	var lastKey map[string]types.AttributeValue

	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("userId = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("querying fuel entries: %w", err)
		}

		var page []models.FuelEntry
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshaling fuel entries: %w", err)
		}
		entries = append(entries, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return entries, nil
}

func matchesQuery(entry models.FuelEntry, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(entry.StationName), q) ||
		strings.Contains(strings.ToLower(entry.Notes), q)
}
