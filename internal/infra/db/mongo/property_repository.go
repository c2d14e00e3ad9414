package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	col := db.Collection("agg_property")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "approval_status", Value: 1}, {Key: "available", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &PropertyRepository{col: col}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *PropertyRepository) List(ctx context.Context, filter domainproperty.ListFilter) ([]*domainproperty.Property, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["approval_status"] = string(filter.Status)
	}
	if filter.AvailableOnly {
		query["available"] = true
	}
	if filter.HostID != "" {
		query["host_id"] = string(filter.HostID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeProperties(ctx, cursor)
}

func (r *PropertyRepository) SearchApproved(ctx context.Context, params domainproperty.SearchParams) (domainproperty.SearchResult, error) {
	params = params.Normalized()
	query := bson.M{"approval_status": string(domainproperty.ApprovalApproved)}
	if params.AvailableOnly {
		query["available"] = true
	}
	if params.PriceMin > 0 || params.PriceMax > 0 {
		price := bson.M{}
		if params.PriceMin > 0 {
			price["$gte"] = params.PriceMin
		}
		if params.PriceMax > 0 {
			price["$lte"] = params.PriceMax
		}
		query["nightly_rate.amount"] = price
	}
	if params.Query != "" {
		escaped := escapeRegex(params.Query)
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": escaped, "$options": "i"}},
			bson.M{"location": bson.M{"$regex": escaped, "$options": "i"}},
		}
	}
	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return domainproperty.SearchResult{}, err
	}
	direction := 1
	if params.Descending {
		direction = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField(params.Sort), Value: direction}}).
		SetSkip(int64(params.Page * params.Size)).
		SetLimit(int64(params.Size))
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return domainproperty.SearchResult{}, err
	}
	defer cursor.Close(ctx)
	items, err := decodeProperties(ctx, cursor)
	if err != nil {
		return domainproperty.SearchResult{}, err
	}
	return domainproperty.SearchResult{Items: items, Total: int(total)}, nil
}

func sortField(sort domainproperty.SearchSort) string {
	switch sort {
	case domainproperty.SortByName:
		return "name"
	case domainproperty.SortByLocation:
		return "location"
	case domainproperty.SortByPrice:
		return "nightly_rate.amount"
	default:
		return "_id"
	}
}

func escapeRegex(q string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(q))
	for i := 0; i < len(q); i++ {
		for j := 0; j < len(special); j++ {
			if q[i] == special[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, q[i])
	}
	return string(out)
}

func decodeProperties(ctx context.Context, cursor *mongo.Cursor) ([]*domainproperty.Property, error) {
	var out []*domainproperty.Property
	for cursor.Next(ctx) {
		var doc propertyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type propertyDocument struct {
	ID             string        `bson:"_id"`
	HostID         string        `bson:"host_id"`
	Name           string        `bson:"name"`
	Location       string        `bson:"location"`
	NightlyRate    moneyDocument `bson:"nightly_rate"`
	Available      bool          `bson:"available"`
	ApprovalStatus string        `bson:"approval_status"`
	CreatedAt      int64         `bson:"created_at"`
	UpdatedAt      int64         `bson:"updated_at"`
	Version        int64         `bson:"version"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:             string(p.ID),
		HostID:         string(p.HostID),
		Name:           p.Name,
		Location:       p.Location,
		NightlyRate:    moneyDocument{Amount: p.NightlyRate.Amount, Currency: p.NightlyRate.Currency},
		Available:      p.Available,
		ApprovalStatus: string(p.ApprovalStatus),
		CreatedAt:      p.CreatedAt.UnixMilli(),
		UpdatedAt:      p.UpdatedAt.UnixMilli(),
		Version:        p.Version,
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	return &domainproperty.Property{
		ID:             domainproperty.ID(d.ID),
		HostID:         domainuser.ID(d.HostID),
		Name:           d.Name,
		Location:       d.Location,
		NightlyRate:    money.Money{Amount: d.NightlyRate.Amount, Currency: d.NightlyRate.Currency},
		Available:      d.Available,
		ApprovalStatus: domainproperty.ApprovalStatus(d.ApprovalStatus),
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainproperty.Repository = (*PropertyRepository)(nil)
