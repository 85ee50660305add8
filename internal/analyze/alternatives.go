package analyze

// wordAlternatives is a small embedded fallback dictionary mapping common
// long/complex words to simpler Norwegian alternatives, grounded on
// word_analyzer.py's _load_word_alternatives fallback literal.
var wordAlternatives = map[string][]string{
	"implementere":    {"bruke", "innføre"},
	"demonstrere":     {"vise", "bevise"},
	"kommunisere":     {"snakke", "si fra"},
	"identifisere":    {"finne", "kjenne igjen"},
	"modifisere":      {"endre", "tilpasse"},
	"evaluere":        {"vurdere", "bedømme"},
	"analysere":       {"undersøke", "studere"},
	"optimalisere":    {"forbedre", "gjøre bedre"},
	"dokumentere":     {"skrive ned", "beskrive"},
	"administrere":    {"styre", "lede"},
	"konkludere":      {"avslutte", "slutte"},
	"illustrere":      {"vise", "tegne"},
	"informasjon":     {"opplysning", "data"},
	"funksjonalitet":  {"virkning", "bruk"},
	"spesifikasjon":   {"krav", "beskrivelse"},
	"konfigurasjon":   {"oppsett", "innstilling"},
	"definisjon":      {"forklaring", "betydning"},
	"konsekvent":      {"fast", "stabil"},
	"tilstrekkelig":   {"nok", "god nok"},
	"signifikant":     {"viktig", "betydelig"},
}

// AlternativesFor returns simpler alternatives for a lowercase word, or nil
// if none are known.
func AlternativesFor(word string) []string {
	return wordAlternatives[word]
}
