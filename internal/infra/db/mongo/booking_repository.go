package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

// CreateExclusive runs the overlap check and the insert inside one Mongo
// transaction so two racing requests for the same dates cannot both land.
func (r *BookingRepository) CreateExclusive(ctx context.Context, b *domainbooking.Booking) error {
	session, err := r.col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		taken, err := r.ExistsOverlapping(sc, b.PropertyID, b.Range)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domainbooking.ErrDateConflict
		}
		doc := newBookingDocument(b)
		doc.Version = b.Version + 1
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			return nil, err
		}
		b.Version = doc.Version
		return nil, nil
	})
	return err
}

func (r *BookingRepository) ExistsOverlapping(ctx context.Context, propertyID domainproperty.ID, dr daterange.DateRange) (bool, error) {
	filter := bson.M{
		"property_id":     string(propertyID),
		"status":          bson.M{"$in": activeStatusStrings()},
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"user_id": string(userID)})
}

func (r *BookingRepository) ListByProperties(ctx context.Context, propertyIDs []domainproperty.ID) ([]*domainbooking.Booking, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		ids = append(ids, string(id))
	}
	return r.list(ctx, bson.M{"property_id": bson.M{"$in": ids}})
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func activeStatusStrings() []string {
	out := make([]string, 0, len(domainbooking.ActiveStatuses))
	for _, s := range domainbooking.ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}

type bookingDocument struct {
	ID          string        `bson:"_id"`
	PropertyID  string        `bson:"property_id"`
	UserID      string        `bson:"user_id"`
	UserEmail   string        `bson:"user_email"`
	Range       rangeDocument `bson:"range"`
	TotalAmount moneyDocument `bson:"total_amount"`
	Status      string        `bson:"status"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
	Version     int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		PropertyID:  string(b.PropertyID),
		UserID:      string(b.UserID),
		UserEmail:   b.UserEmail,
		Range:       rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		TotalAmount: moneyDocument{Amount: b.TotalAmount.Amount, Currency: b.TotalAmount.Currency},
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.ID(d.ID),
		PropertyID:  domainproperty.ID(d.PropertyID),
		UserID:      domainuser.ID(d.UserID),
		UserEmail:   d.UserEmail,
		Range:       daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		TotalAmount: money.Money{Amount: d.TotalAmount.Amount, Currency: d.TotalAmount.Currency},
		Status:      domainbooking.Status(d.Status),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
