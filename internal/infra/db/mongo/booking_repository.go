package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

// EnsureIndexes creates the calendar lookup index.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "from", Value: 1}, {Key: "to", Value: 1}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
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

// ForListing relies on the layout of date keys sorting chronologically.
func (r *BookingRepository) ForListing(ctx context.Context, id domainlistings.ListingID, dr daterange.DateRange, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"listing_id": string(id),
		"from":       bson.M{"$lte": daterange.Key(dr.To)},
		"to":         bson.M{"$gte": daterange.Key(dr.From)},
	}
	if len(statuses) > 0 {
		raw := make([]string, len(statuses))
		for i, s := range statuses {
			raw[i] = string(s)
		}
		filter["status"] = bson.M{"$in": raw}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID          string              `bson:"_id"`
	ListingID   string              `bson:"listing_id"`
	RequesterID string              `bson:"requester_id"`
	Status      string              `bson:"status"`
	Selection   map[string][]string `bson:"selection,omitempty"`
	From        string              `bson:"from"`
	To          string              `bson:"to"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
	Version     int64               `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		ListingID:   string(b.ListingID),
		RequesterID: b.RequesterID,
		Status:      string(b.Status),
		Selection:   b.Selection,
		From:        daterange.Key(b.Days.From),
		To:          daterange.Key(b.Days.To),
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	days, err := daterange.Parse(d.From, d.To)
	if err != nil {
		return nil, err
	}
	b := &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		ListingID:   domainlistings.ListingID(d.ListingID),
		RequesterID: d.RequesterID,
		Status:      domainbooking.Status(d.Status),
		Days:        days,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
	if len(d.Selection) > 0 {
		b.Selection = selection.New(d.Selection)
	}
	return b, nil
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return daterange.Key(t)
}

func parseDateKey(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return daterange.ParseDate(raw)
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
