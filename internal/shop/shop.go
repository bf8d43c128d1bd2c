// Package shop models trading-card shops scraped from Places results: the raw search
// result, the optional detail enrichment, and the record persisted to the shops table.
package shop

import (
	"strings"
)

// GameType is a trading card game a shop is assumed to carry.
type GameType string

const (
	GamePokemon    GameType = "POKEMON"
	GameMagic      GameType = "MAGIC"
	GameYugioh     GameType = "YUGIOH"
	GameOnePiece   GameType = "ONE_PIECE"
	GameDragonBall GameType = "DRAGON_BALL"
	GameLorcana    GameType = "LORCANA"
)

// AllGameTypes lists every game type in canonical order.
var AllGameTypes = []GameType{
	GamePokemon,
	GameMagic,
	GameYugioh,
	GameOnePiece,
	GameDragonBall,
	GameLorcana,
}

// Service is something a shop offers besides selling singles.
type Service string

const (
	ServiceBuyCards       Service = "BUY_CARDS"
	ServiceSellCards      Service = "SELL_CARDS"
	ServiceTrade          Service = "TRADE"
	ServiceTournaments    Service = "TOURNAMENTS"
	ServiceSealedProducts Service = "SEALED_PRODUCTS"
	ServiceAccessories    Service = "ACCESSORIES"
	ServicePlayArea       Service = "PLAY_AREA"
	ServiceEvents         Service = "EVENTS"
	ServiceCardGrading    Service = "CARD_GRADING"
	ServicePreorders      Service = "PREORDERS"
)

// DefaultServices is attached to every new shop unless service detection is enabled.
var DefaultServices = []Service{
	ServiceBuyCards,
	ServiceSellCards,
	ServiceTrade,
	ServiceTournaments,
	ServiceSealedProducts,
	ServiceAccessories,
	ServicePlayArea,
}

// Fixed values for newly created shops.
const (
	TypeStore                 = "STORE"
	DefaultReservationMinutes = 30
)

// SearchResult is one item of a nearby-search response.
type SearchResult struct {
	PlaceID        string
	Name           string
	Vicinity       string
	Latitude       float64
	Longitude      float64
	Types          []string
	BusinessStatus string
	Rating         *float64
}

// Detail is the optional enrichment from a place details lookup. Empty means absent.
type Detail struct {
	Phone            string
	Website          string
	FormattedAddress string
	Description      string
	OpeningHoursJSON string
}

// Record is a shop row as inserted into the shops table.
type Record struct {
	PlaceID                    string     `json:"place_id,omitempty" db:"-"`
	Name                       string     `json:"name" db:"name"`
	Address                    string     `json:"address" db:"address"`
	Latitude                   float64    `json:"latitude" db:"latitude"`
	Longitude                  float64    `json:"longitude" db:"longitude"`
	PhoneNumber                string     `json:"phone_number,omitempty" db:"phone_number"`
	WebsiteURL                 string     `json:"website_url,omitempty" db:"website_url"`
	Description                string     `json:"description,omitempty" db:"description"`
	OpeningHoursJSON           string     `json:"opening_hours_json,omitempty" db:"opening_hours_json"`
	Type                       string     `json:"type" db:"type"`
	IsVerified                 bool       `json:"is_verified" db:"is_verified"`
	Active                     bool       `json:"active" db:"active"`
	GameTypes                  []GameType `json:"tcg_types" db:"tcg_types"`
	Services                   []Service  `json:"services" db:"services"`
	ReservationDurationMinutes int        `json:"reservation_duration_minutes" db:"reservation_duration_minutes"`
}

// GameTypesText encodes GameTypes as the comma-separated column value.
func (r *Record) GameTypesText() string {
	return JoinGameTypes(r.GameTypes)
}

// ServicesText encodes Services as the comma-separated column value.
func (r *Record) ServicesText() string {
	return JoinServices(r.Services)
}

// JoinGameTypes joins game types with commas.
func JoinGameTypes(types []GameType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// JoinServices joins services with commas.
func JoinServices(services []Service) string {
	parts := make([]string, len(services))
	for i, s := range services {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// nullable maps "" to nil so optional columns are stored as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Args returns the column values in the order of Columns.
func (r *Record) Args() []any {
	return []any{
		r.Name,
		r.Address,
		r.Latitude,
		r.Longitude,
		nullable(r.PhoneNumber),
		nullable(r.WebsiteURL),
		nullable(r.Description),
		nullable(r.OpeningHoursJSON),
		r.Type,
		r.IsVerified,
		r.Active,
		r.GameTypesText(),
		r.ServicesText(),
		r.ReservationDurationMinutes,
	}
}

// Columns are the shops table columns written on insert.
var Columns = []string{
	"name",
	"address",
	"latitude",
	"longitude",
	"phone_number",
	"website_url",
	"description",
	"opening_hours_json",
	"type",
	"is_verified",
	"active",
	"tcg_types",
	"services",
	"reservation_duration_minutes",
}
