package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	domainlistings "skillbridge/internal/domain/listings"
	domainprofiles "skillbridge/internal/domain/profiles"
)

type fixtures struct {
	Profiles []profileFixture `json:"profiles"`
	Listings []listingFixture `json:"listings"`
}

type profileFixture struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Bio    string `json:"bio"`
}

type listingFixture struct {
	ID         string          `json:"id"`
	CreatorID  string          `json:"creator_id"`
	Kind       string          `json:"kind"`
	Title      string          `json:"title"`
	Subject    string          `json:"subject"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

const fixturesSeed = "fixtures"

// loadFixtures seeds profiles and listings from path once per store. Later
// runs leave the data alone, so deleted listings stay deleted and rating
// aggregates are never reset. Entities that already exist are skipped. A
// missing file is not an error; invalid entries are logged and skipped.
func loadFixtures(ctx context.Context, st stores, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var fx fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	if st.Seeds != nil {
		first, err := st.Seeds.Claim(ctx, fixturesSeed)
		if err != nil {
			return fmt.Errorf("claim fixtures seed: %w", err)
		}
		if !first {
			logger.Info("fixtures already applied, skipping", "path", path)
			return nil
		}
	}

	now := time.Now().UTC()
	for _, p := range fx.Profiles {
		if _, err := st.Profiles.ByID(ctx, p.UserID); err == nil {
			continue
		} else if !errors.Is(err, domainprofiles.ErrProfileNotFound) {
			logger.Error("cannot check fixture profile", "user_id", p.UserID, "error", err)
			continue
		}
		profile := &domainprofiles.Profile{UserID: p.UserID, Name: p.Name, Email: p.Email, Bio: p.Bio, UpdatedAt: now}
		if err := st.Profiles.Save(ctx, profile); err != nil {
			logger.Error("cannot store fixture profile", "user_id", p.UserID, "error", err)
		}
	}
	for _, l := range fx.Listings {
		kind, err := domainlistings.ParseKind(l.Kind)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", l.ID, "error", err)
			continue
		}
		if _, err := st.Listings.ByID(ctx, domainlistings.ListingID(l.ID)); err == nil {
			continue
		} else if !errors.Is(err, domainlistings.ErrListingNotFound) {
			logger.Error("cannot check fixture listing", "listing_id", l.ID, "error", err)
			continue
		}
		listing, err := domainlistings.New(domainlistings.CreateParams{
			ID:         domainlistings.ListingID(l.ID),
			CreatorID:  l.CreatorID,
			Kind:       kind,
			Title:      l.Title,
			Subject:    l.Subject,
			HourlyRate: l.HourlyRate,
			Now:        now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", l.ID, "error", err)
			continue
		}
		listing.ClearEvents()
		if err := st.Listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", l.ID, "error", err)
			continue
		}
		logger.Debug("listing fixture imported", "listing_id", listing.ID)
	}
	logger.Info("fixtures loaded", "profiles", len(fx.Profiles), "listings", len(fx.Listings))
	return nil
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "fixtures.json"),
		filepath.Join("..", "..", "data", "fixtures.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
