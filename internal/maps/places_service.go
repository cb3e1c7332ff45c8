// README: Google Places lookups that give the trip planner real attractions to anchor on.
package maps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"googlemaps.github.io/maps"
)

const (
	minRating         = 4.0
	placesPerInterest = 3
	maxInterests      = 4
)

// Place represents a simplified attraction result.
type Place struct {
	Name             string
	Address          string
	Rating           float32
	PlaceID          string
	UserRatingsTotal int
	Interest         string
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client *maps.Client
}

// NewPlacesService creates a PlacesService. Extra options (base URL, HTTP client) are for tests.
func NewPlacesService(apiKey string, opts ...maps.ClientOption) (*PlacesService, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// SearchAttractions returns up to placesPerInterest well-rated places for one interest.
func (s *PlacesService) SearchAttractions(ctx context.Context, destination, interest string) ([]Place, error) {
	query := fmt.Sprintf("top attractions in %s", destination)
	if interest != "" {
		query = fmt.Sprintf("top %s spots in %s", interest, destination)
	}
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query, Language: "en"})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var out []Place
	for _, r := range resp.Results {
		if r.Rating < minRating {
			continue
		}
		out = append(out, Place{
			Name:             r.Name,
			Address:          r.FormattedAddress,
			Rating:           r.Rating,
			PlaceID:          r.PlaceID,
			UserRatingsTotal: r.UserRatingsTotal,
			Interest:         interest,
		})
		if len(out) >= placesPerInterest {
			break
		}
	}
	return out, nil
}

// DestinationGuide turns Places results into a short prompt section for the planner.
type DestinationGuide struct {
	places *PlacesService
}

func NewDestinationGuide(places *PlacesService) *DestinationGuide {
	return &DestinationGuide{places: places}
}

// Describe lists notable places for the destination, grouped by the traveler's interests.
// Interests whose lookup fails are skipped; an error is returned only when every lookup fails.
func (g *DestinationGuide) Describe(ctx context.Context, destination string, interests []string) (string, error) {
	if len(interests) > maxInterests {
		interests = interests[:maxInterests]
	}
	if len(interests) == 0 {
		interests = []string{""}
	}

	seen := map[string]bool{}
	var (
		found   []Place
		lastErr error
		okCount int
	)
	for _, interest := range interests {
		places, err := g.places.SearchAttractions(ctx, destination, interest)
		if err != nil {
			lastErr = err
			continue
		}
		okCount++
		for _, p := range places {
			if seen[p.PlaceID] {
				continue
			}
			seen[p.PlaceID] = true
			found = append(found, p)
		}
	}
	if okCount == 0 && lastErr != nil {
		return "", lastErr
	}
	if len(found) == 0 {
		return "", nil
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Rating > found[j].Rating })
	var b strings.Builder
	fmt.Fprintf(&b, "Well-reviewed places in %s:\n", destination)
	for _, p := range found {
		fmt.Fprintf(&b, "- %s (%.1f★", p.Name, p.Rating)
		if p.Interest != "" {
			fmt.Fprintf(&b, ", %s", p.Interest)
		}
		b.WriteString(")")
		if p.Address != "" {
			fmt.Fprintf(&b, ": %s", p.Address)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
