package shop

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// gameKeywords maps each game to the substrings that indicate it. Keywords are
// matched against folded text, so accented spellings are covered by the plain ones.
var gameKeywords = []struct {
	game     GameType
	keywords []string
}{
	{GamePokemon, []string{"pokemon"}},
	{GameMagic, []string{"magic", "mtg", "gathering"}},
	{GameYugioh, []string{"yugioh", "yu-gi-oh", "yu gi oh"}},
	{GameOnePiece, []string{"one piece"}},
	{GameDragonBall, []string{"dragon ball"}},
	{GameLorcana, []string{"lorcana"}},
}

// PlayAreaMinRating is the rating from which a shop is assumed to have a play area.
const PlayAreaMinRating = 4.0

// Fold lower-cases s and strips diacritics ("Pokémon" becomes "pokemon").
func Fold(s string) string {
	lower := cases.Lower(language.Und).String(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return folded
}

// ClassifyGameTypes infers the games a shop carries from its name, place types and
// description. When nothing matches the shop is assumed to carry every game.
func ClassifyGameTypes(name string, types []string, description string) []GameType {
	text := Fold(name + " " + strings.Join(types, " ") + " " + description)

	var found []GameType
	for _, g := range gameKeywords {
		if containsAny(text, g.keywords...) {
			found = append(found, g.game)
		}
	}
	if len(found) == 0 {
		return append([]GameType(nil), AllGameTypes...)
	}
	return found
}

// ClassifyServices infers offered services from free text and the shop rating.
// Buying, selling, sealed product and accessories are always assumed.
func ClassifyServices(text string, rating *float64) []Service {
	t := Fold(text)

	services := []Service{ServiceBuyCards, ServiceSellCards}
	if containsAny(t, "trade", "scambio") {
		services = append(services, ServiceTrade)
	}
	if containsAny(t, "tournament", "torneo", "competition", "event") {
		services = append(services, ServiceTournaments, ServiceEvents)
	}
	if containsAny(t, "grading", "psa", "cgc", "valutazione") {
		services = append(services, ServiceCardGrading)
	}
	if containsAny(t, "preorder", "pre-order", "preordine") {
		services = append(services, ServicePreorders)
	}
	services = append(services, ServiceSealedProducts, ServiceAccessories)
	if containsAny(t, "play", "game", "gioco", "sala") || (rating != nil && *rating >= PlayAreaMinRating) {
		services = append(services, ServicePlayArea)
	}
	return services
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
