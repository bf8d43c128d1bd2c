package shop

import (
	"context"
)

// DetailsSource resolves the optional enrichment for a place.
type DetailsSource interface {
	Details(ctx context.Context, placeID string) Detail
}

// Builder turns search results into shop records.
type Builder struct {
	details        DetailsSource
	detectServices bool
}

// NewBuilder creates a Builder. details may be nil, in which case records are never
// enriched. With detectServices the services are inferred from the shop text instead
// of using DefaultServices.
func NewBuilder(details DetailsSource, detectServices bool) *Builder {
	return &Builder{details: details, detectServices: detectServices}
}

// Build creates the record for r. Details are fetched only when withDetails is set and
// the result carries a place ID; non-empty detail fields override the search fields.
func (b *Builder) Build(ctx context.Context, r SearchResult, withDetails bool) *Record {
	rec := &Record{
		PlaceID:                    r.PlaceID,
		Name:                       r.Name,
		Address:                    r.Vicinity,
		Latitude:                   r.Latitude,
		Longitude:                  r.Longitude,
		Type:                       TypeStore,
		IsVerified:                 false,
		Active:                     false,
		ReservationDurationMinutes: DefaultReservationMinutes,
	}

	if withDetails && r.PlaceID != "" && b.details != nil {
		d := b.details.Details(ctx, r.PlaceID)
		if d.Phone != "" {
			rec.PhoneNumber = d.Phone
		}
		if d.Website != "" {
			rec.WebsiteURL = d.Website
		}
		if d.FormattedAddress != "" {
			rec.Address = d.FormattedAddress
		}
		if d.Description != "" {
			rec.Description = d.Description
		}
		if d.OpeningHoursJSON != "" {
			rec.OpeningHoursJSON = d.OpeningHoursJSON
		}
	}

	rec.GameTypes = ClassifyGameTypes(r.Name, r.Types, rec.Description)
	if b.detectServices {
		rec.Services = ClassifyServices(r.Name+" "+rec.Description, r.Rating)
	} else {
		rec.Services = append([]Service(nil), DefaultServices...)
	}
	return rec
}
