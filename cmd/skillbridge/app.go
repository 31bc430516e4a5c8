package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"skillbridge/internal/app/bookings"
	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/identity"
	"skillbridge/internal/app/listings"
	"skillbridge/internal/app/middleware"
	appoutbox "skillbridge/internal/app/outbox"
	"skillbridge/internal/app/ratings"
	"skillbridge/internal/app/screen"
	domainbooking "skillbridge/internal/domain/booking"
	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
	ginserver "skillbridge/internal/infra/http/gin"
	"skillbridge/internal/infra/obs"
	infraoutbox "skillbridge/internal/infra/outbox"
)

type profileStore interface {
	domainprofiles.Repository
	Save(ctx context.Context, p *domainprofiles.Profile) error
}

type seedLedger interface {
	Claim(ctx context.Context, name string) (bool, error)
}

type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Store
}

// stores is the persistence backend selected by STORAGE_DRIVER.
type stores struct {
	Listings    domainlistings.Repository
	Bookings    domainbooking.Repository
	Ratings     domainratings.Repository
	Profiles    profileStore
	Outbox      outboxStore
	Idempotency middleware.IdempotencyStore
	Seeds       seedLedger
	Checks      map[string]obs.Check
	Close       func(ctx context.Context) error
}

type application struct {
	commands *bus.InMemory
	bus      bus.Bus
	bookings *bookings.Engine
	ratings  *ratings.Engine
	cascade  *listings.Cascade
	screens  *screen.Orchestrator
	stores   stores
	metrics  *obs.Metrics
}

// buildApplication wires engines, bus handlers and middleware on top of st.
// profiles may wrap st.Profiles, e.g. with a cache.
func buildApplication(st stores, profiles domainprofiles.Repository, metrics *obs.Metrics, logger *slog.Logger) *application {
	if profiles == nil {
		profiles = st.Profiles
	}
	ids := identity.ContextProvider{}
	encoder := appoutbox.JSONEventEncoder{}
	now := func() time.Time { return time.Now().UTC() }

	bookingEngine := &bookings.Engine{
		Listings: st.Listings,
		Bookings: st.Bookings,
		Identity: ids,
		Outbox:   st.Outbox,
		Encoder:  encoder,
		Metrics:  metrics,
		Logger:   logger,
		Now:      now,
		NewID:    uuid.NewString,
	}
	cascade := &listings.Cascade{
		Listings:  st.Listings,
		Bookings:  st.Bookings,
		Canceller: bookingEngine,
		Identity:  ids,
		Outbox:    st.Outbox,
		Encoder:   encoder,
		Metrics:   metrics,
		Logger:    logger,
		Now:       now,
	}
	ratingEngine := &ratings.Engine{
		Listings: st.Listings,
		Bookings: st.Bookings,
		Ratings:  st.Ratings,
		Profiles: profiles,
		Identity: ids,
		Outbox:   st.Outbox,
		Encoder:  encoder,
		Metrics:  metrics,
		Logger:   logger,
		Now:      now,
		NewID:    uuid.NewString,
	}

	commands := bus.NewInMemory()
	bus.Register(commands, &bookings.CreateBookingHandler{Engine: bookingEngine})
	bus.Register(commands, &bookings.TransitionBookingHandler{Engine: bookingEngine})
	bus.Register(commands, &listings.DeleteListingHandler{Cascade: cascade})
	bus.Register(commands, &listings.DeactivateListingHandler{
		Listings: st.Listings,
		Identity: ids,
		Outbox:   st.Outbox,
		Encoder:  encoder,
		Logger:   logger,
		Now:      now,
	})
	bus.Register(commands, &ratings.SubmitRatingHandler{Engine: ratingEngine})

	chained := middleware.Chain(
		commands,
		middleware.Logging(logger),
		middleware.Authentication(ids),
		middleware.Validation(middleware.NewStructValidator()),
		middleware.Idempotency(st.Idempotency, nil),
		middleware.OutboxFlush(st.Outbox),
	)

	return &application{
		commands: commands,
		bus:      chained,
		bookings: bookingEngine,
		ratings:  ratingEngine,
		cascade:  cascade,
		screens: &screen.Orchestrator{
			Listings: st.Listings,
			Bookings: st.Bookings,
			Profiles: profiles,
			Identity: ids,
			Engine:   bookingEngine,
			Cascade:  cascade,
			Ratings:  ratingEngine,
			Logger:   logger,
		},
		stores:  st,
		metrics: metrics,
	}
}

func (a *application) handlers(auth gin.HandlerFunc, logger *slog.Logger) ginserver.Handlers {
	var metricsHandler http.Handler
	if a.metrics != nil {
		metricsHandler = a.metrics.Handler()
	}
	return ginserver.Handlers{
		Listing:        ginserver.ListingHandler{Screens: a.screens, Commands: a.bus, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: a.bus},
		Metrics:        metricsHandler,
		AuthMiddleware: auth,
	}
}
