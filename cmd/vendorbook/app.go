package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"vendorbook/internal/app/commands"
	availabilityapp "vendorbook/internal/app/handlers/availability"
	bookingapp "vendorbook/internal/app/handlers/booking"
	listingsapp "vendorbook/internal/app/handlers/listings"
	selectionapp "vendorbook/internal/app/handlers/selection"
	"vendorbook/internal/app/middleware"
	appoutbox "vendorbook/internal/app/outbox"
	"vendorbook/internal/app/queries"
	"vendorbook/internal/app/uow"
	domainavailability "vendorbook/internal/domain/availability"
	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/infra/broker/kafka"
	"vendorbook/internal/infra/config"
	mongostore "vendorbook/internal/infra/db/mongo"
	"vendorbook/internal/infra/geocode"
	ginserver "vendorbook/internal/infra/http/gin"
	"vendorbook/internal/infra/inbox"
	infraoutbox "vendorbook/internal/infra/outbox"
	"vendorbook/internal/infra/storage/memory"
)

type application struct {
	handlers ginserver.Handlers
	commands commands.Bus
	listings domainlistings.ListingRepository

	relayStore infraoutbox.Store
	inbox      inbox.Deduper

	pings   []func(context.Context) error
	closers []func(context.Context) error
	wg      sync.WaitGroup
}

// storage groups the adapters selected by STORAGE_MODE.
type storage struct {
	listings    domainlistings.ListingRepository
	bookings    domainbooking.Repository
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	relay       infraoutbox.Store
	idempotency middleware.IdempotencyStore
	inbox       inbox.Deduper
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}
	st, err := app.buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.listings = st.listings
	app.relayStore = st.relay
	app.inbox = st.inbox

	policy, err := domainavailability.ParseNoTemplatePolicy(cfg.NoTemplatePolicy)
	if err != nil {
		return nil, err
	}
	calendars := &availabilityapp.CalendarService{
		Options: domainavailability.Options{
			SlotDuration: cfg.SlotDuration,
			DefaultHours: domainlistings.DayHours{Open: cfg.DefaultDayOpen, Close: cfg.DefaultDayClose},
			NoTemplate:   policy,
			MaxDays:      cfg.MaxCalendarDays,
		},
		Logger: logger,
	}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: st.factory,
		Calendars:  calendars,
		Outbox:     st.outbox,
		Encoder:    encoder,
	})
	(&bookingapp.UpdateBookingStatusHandler{
		UoWFactory: st.factory,
		Outbox:     st.outbox,
		Encoder:    encoder,
	}).Register(commandBus)
	commands.RegisterHandler(commandBus, listingsapp.UpdateWeeklyAvailabilityCommand{}.Key(), &listingsapp.UpdateWeeklyAvailabilityHandler{
		UoWFactory: st.factory,
		Outbox:     st.outbox,
		Encoder:    encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetAvailabilityQuery{}.Key(), &availabilityapp.GetAvailabilityHandler{
		UoWFactory: st.factory,
		Calendars:  calendars,
	})
	queries.RegisterHandler(queryBus, listingsapp.GetListingQuery{}.Key(), &listingsapp.GetListingHandler{UoWFactory: st.factory})
	queries.RegisterHandler(queryBus, listingsapp.SearchNearbyQuery{}.Key(), &listingsapp.SearchNearbyHandler{
		UoWFactory: st.factory,
		Geocoder:   app.buildGeocoder(cfg, logger),
	})
	(&selectionapp.Handler{SlotDuration: cfg.SlotDuration}).Register(queryBus)

	validator := middleware.NewStructValidator()
	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger),
		middleware.Validation(validator),
		middleware.Authorization(middleware.ActorRequired{}),
		middleware.Idempotency(st.idempotency, nil, cfg.IdempotencyTTL),
		middleware.Transaction(st.factory, nil),
		middleware.OutboxFlush(st.outbox, logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	app.handlers = ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
		Listing:      ginserver.ListingHandler{Queries: queryBusWithMiddleware, Commands: app.commands},
		Selection:    ginserver.SelectionHandler{Queries: queryBusWithMiddleware},
		Booking:      ginserver.BookingHandler{Commands: app.commands},
	}
	return app, nil
}

func (a *application) buildStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.StorageMode != config.StorageMongo {
		listings := memory.NewListingRepository()
		bookings := memory.NewBookingRepository()
		box := memory.NewOutbox()
		return storage{
			listings:    listings,
			bookings:    bookings,
			factory:     memory.Factory{ListingsRepo: listings, BookingsRepo: bookings},
			outbox:      box,
			relay:       box,
			idempotency: memory.NewIdempotencyStore(),
			inbox:       memory.NewInbox(),
		}, nil
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo connect: %w", err)
	}
	a.pings = append(a.pings, client.Ping)
	a.closers = append(a.closers, client.Close)

	listings := mongostore.NewListingRepository(client.DB)
	bookings := mongostore.NewBookingRepository(client.DB)
	if err := listings.EnsureIndexes(ctx); err != nil {
		return storage{}, fmt.Errorf("listing indexes: %w", err)
	}
	if err := bookings.EnsureIndexes(ctx); err != nil {
		return storage{}, fmt.Errorf("booking indexes: %w", err)
	}
	box, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		return storage{}, fmt.Errorf("outbox store: %w", err)
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, fmt.Errorf("idempotency store: %w", err)
	}
	dedup, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return storage{}, fmt.Errorf("inbox store: %w", err)
	}
	return storage{
		listings:    listings,
		bookings:    bookings,
		factory:     mongostore.Factory{DB: client.DB, ListingsRepo: listings, BookingsRepo: bookings},
		outbox:      box,
		relay:       box,
		idempotency: idem,
		inbox:       dedup,
	}, nil
}

func (a *application) buildGeocoder(cfg config.Config, logger *slog.Logger) *geocode.CachedGeocoder {
	var cache geocode.Cache = geocode.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		a.pings = append(a.pings, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		cache = geocode.NewRedisCache(rdb)
	}
	return &geocode.CachedGeocoder{
		Upstream: geocode.NewClient(cfg.GeocoderURL),
		Cache:    cache,
		TTL:      cfg.GeocodeCacheTTL,
		Logger:   logger,
	}
}

// startBackground runs the outbox relay and the booking status consumer when
// Kafka is configured.
func (a *application) startBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	if !cfg.KafkaEnabled() {
		logger.Info("kafka disabled, outbox relay and status consumer not started")
		return
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("vendorbook-relay"))
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		return
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	worker := &infraoutbox.Worker{
		Store:       a.relayStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      "vendorbook",
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	a.goRun(func() error { return worker.Run(ctx) }, "outbox worker", logger)

	projector := &inbox.BookingStatusProjector{Inbox: a.inbox, Commands: a.commands, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.NewConfig("vendorbook-status"), projector, logger)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		return
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	a.goRun(func() error { return consumer.Run(ctx, []string{cfg.KafkaStatusTopic}) }, "status consumer", logger)
}

func (a *application) goRun(run func() error, name string, logger *slog.Logger) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := run(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(name+" stopped", "error", err)
		}
	}()
}

func (a *application) wait() {
	a.wg.Wait()
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}
