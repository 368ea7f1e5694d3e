package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "vendorbook/internal/domain/listings"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

// EnsureIndexes creates the location and host indexes.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "address.lat", Value: 1}, {Key: "address.lon", Value: 1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}}},
	})
	return err
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc, err := newListingDocument(l)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
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
	l.Version = doc.Version
	return nil
}

// Nearby returns listings inside the bounding box of params, ordered by id.
// Exact distance filtering is left to the caller.
func (r *ListingRepository) Nearby(ctx context.Context, params domainlistings.NearbyParams) ([]*domainlistings.Listing, error) {
	params = params.Normalized()
	box := params.Box()
	filter := bson.M{
		"address.lat": bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
	}
	if box.MinLon > -180 || box.MaxLon < 180 {
		filter["address.lon"] = bson.M{"$gte": box.MinLon, "$lte": box.MaxLon}
	}
	if params.OnlyActive {
		filter["state"] = string(domainlistings.ListingActive)
	}
	if params.Category != "" {
		filter["category"] = string(params.Category)
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainlistings.Listing
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		l, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, cur.Err()
}

type listingDocument struct {
	ID              string          `bson:"_id"`
	HostID          string          `bson:"host_id"`
	Title           string          `bson:"title"`
	Description     string          `bson:"description"`
	Category        string          `bson:"category"`
	Address         addressDocument `bson:"address"`
	Mode            string          `bson:"mode"`
	HourlyRateCents int64           `bson:"hourly_rate_cents"`
	DailyRateCents  int64           `bson:"daily_rate_cents"`
	// Weekly rules are stored as authored JSON so odd host input survives.
	WeeklyJSON    string    `bson:"weekly_availability_json,omitempty"`
	AvailableFrom string    `bson:"available_from,omitempty"`
	AvailableTo   string    `bson:"available_to,omitempty"`
	State         string    `bson:"state"`
	Version       int64     `bson:"version"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type addressDocument struct {
	Line1   string  `bson:"line1"`
	City    string  `bson:"city"`
	Region  string  `bson:"region"`
	Country string  `bson:"country"`
	Lat     float64 `bson:"lat"`
	Lon     float64 `bson:"lon"`
}

func newListingDocument(l *domainlistings.Listing) (listingDocument, error) {
	doc := listingDocument{
		ID:          string(l.ID),
		HostID:      string(l.Host),
		Title:       l.Title,
		Description: l.Description,
		Category:    string(l.Category),
		Address: addressDocument{
			Line1:   l.Address.Line1,
			City:    l.Address.City,
			Region:  l.Address.Region,
			Country: l.Address.Country,
			Lat:     l.Address.Lat,
			Lon:     l.Address.Lon,
		},
		Mode:            string(l.Mode),
		HourlyRateCents: l.HourlyRateCents,
		DailyRateCents:  l.DailyRateCents,
		AvailableFrom:   dateKey(l.AvailableFrom),
		AvailableTo:     dateKey(l.AvailableTo),
		State:           string(l.State),
		Version:         l.Version,
		CreatedAt:       l.CreatedAt.UTC(),
		UpdatedAt:       l.UpdatedAt.UTC(),
	}
	if len(l.WeeklyAvailability) > 0 {
		raw, err := json.Marshal(l.WeeklyAvailability)
		if err != nil {
			return listingDocument{}, err
		}
		doc.WeeklyJSON = string(raw)
	}
	return doc, nil
}

func (d listingDocument) toAggregate() (*domainlistings.Listing, error) {
	l := &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Host:        domainlistings.HostID(d.HostID),
		Title:       d.Title,
		Description: d.Description,
		Category:    domainlistings.Category(d.Category),
		Address: domainlistings.Address{
			Line1:   d.Address.Line1,
			City:    d.Address.City,
			Region:  d.Address.Region,
			Country: d.Address.Country,
			Lat:     d.Address.Lat,
			Lon:     d.Address.Lon,
		},
		Mode:            domainlistings.BookingMode(d.Mode),
		HourlyRateCents: d.HourlyRateCents,
		DailyRateCents:  d.DailyRateCents,
		State:           domainlistings.ListingState(d.State),
		Version:         d.Version,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	if d.WeeklyJSON != "" {
		if err := json.Unmarshal([]byte(d.WeeklyJSON), &l.WeeklyAvailability); err != nil {
			return nil, err
		}
	}
	var err error
	if l.AvailableFrom, err = parseDateKey(d.AvailableFrom); err != nil {
		return nil, err
	}
	if l.AvailableTo, err = parseDateKey(d.AvailableTo); err != nil {
		return nil, err
	}
	return l, nil
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
