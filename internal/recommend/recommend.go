// Package recommend implements component C4: turning metric scores into
// an ordered list of typed Recommendation records, grounded on the
// original service's app/services/recommendations.py
// (ReadabilityRecommender.generate).
package recommend

import (
	"fmt"

	"github.com/crlsmrls/lixservice/internal/domain"
)

// Input is the reduced metric view the recommender rules key off, per
// spec.md §4.4.
type Input struct {
	LIX                 float64
	RIX                 float64
	AvgSentenceLength   float64
	LongWordsPercentage float64
	UserContext         domain.UserContext
	Simplified          bool // suppress examples
}

// Generate runs every rule in documented order and returns the resulting
// recommendations. When no rule fires, exactly one positive_feedback item
// is returned.
func Generate(in Input) []domain.Recommendation {
	var out []domain.Recommendation

	if in.AvgSentenceLength > 18 {
		impact := "medium"
		if in.AvgSentenceLength > 25 {
			impact = "high"
		}
		examples := in.examples(
			"Før: 'Det er viktig å vurdere alle faktorene som påvirker resultatet, inkludert eksterne variabler som vær og tilgjengelighet av materialer, samt interne faktorer som gjennomføringskapasitet og kvalitetssikring.'",
			"Etter: 'Det er viktig å vurdere alle faktorene som påvirker resultatet. Dette inkluderer eksterne variabler som vær og tilgjengelighet av materialer. Interne faktorer som gjennomføringskapasitet og kvalitetssikring må også vurderes.'",
		)
		out = append(out, domain.Recommendation{
			Type:        "sentence_structure",
			Title:       "Kortere setninger",
			Description: fmt.Sprintf("Gjennomsnittlig setningslengde er %.1f ord, som er relativt høyt.", in.AvgSentenceLength),
			Suggestion:  "Del lange setninger i to eller flere kortere setninger for bedre forståelse.",
			Impact:      impact,
			Examples:    examples,
		})
	}

	if in.LongWordsPercentage > 25 {
		impact := "medium"
		if in.LongWordsPercentage > 35 {
			impact = "high"
		}
		out = append(out, domain.Recommendation{
			Type:        "word_complexity",
			Title:       "Enklere ordvalg",
			Description: fmt.Sprintf("%.1f%% av ordene er lange (7+ bokstaver).", in.LongWordsPercentage),
			Suggestion:  "Bruk kortere og mer vanlige ord for å gjøre teksten mer tilgjengelig.",
			Impact:      impact,
			Examples: in.examples(
				"Erstatt 'implementere' med 'bruke'",
				"Erstatt 'signifikant' med 'viktig'",
				"Erstatt 'kommunisere' med 'si fra'",
				"Erstatt 'funksjoner' med 'egenskaper'",
			),
		})
	}

	if in.LIX > 40 {
		out = append(out, domain.Recommendation{
			Type:        "writing_style",
			Title:       "Aktivt språk",
			Description: "Passivt språk gjør teksten tyngre å lese.",
			Suggestion:  "Bruk aktiv form fremfor passiv form når mulig.",
			Impact:      "medium",
			Examples: in.examples(
				"Passiv: 'Beslutningen ble tatt av styret.'",
				"Aktiv: 'Styret tok beslutningen.'",
			),
		})
		out = append(out, domain.Recommendation{
			Type:        "flow_improvement",
			Title:       "Bedre tekstflyt",
			Description: "Manglende bindeord kan gjøre teksten oppstykket.",
			Suggestion:  "Bruk bindeord for å skape sammenheng mellom setninger og avsnitt.",
			Impact:      "medium",
			Examples: in.examples(
				"Legge til: 'derfor', 'fordi', 'likevel', 'dessuten'",
				"Eksempel: 'Han kom for sent. Han mistet bussen.' → 'Han kom for sent fordi han mistet bussen.'",
			),
		})
	}

	if in.LIX > 50 {
		out = append(out, domain.Recommendation{
			Type:        "technical_language",
			Title:       "Fagbegreper",
			Description: "Høy LIX-score (over 50) tyder på mange fagbegreper.",
			Suggestion:  "Forklar eller erstatt fagterminologi når mulig.",
			Impact:      "high",
			Examples: in.examples(
				"Forklar begreper når de introduseres: 'Kognitiv dissonans (følelsen av ubehag når man holder motstridende overbevisninger) er et vanlig psykologisk fenomen.'",
				"Bruk enklere synonymer når mulig",
			),
		})
		out = append(out, domain.Recommendation{
			Type:        "structure_improvement",
			Title:       "Forbedre tekststruktur",
			Description: "Komplekse tekster trenger tydelig struktur.",
			Suggestion:  "Del teksten i kortere avsnitt med tydelige overskrifter og punktlister.",
			Impact:      "high",
			Examples: in.examples(
				"Bruk overskrifter for å dele opp lange tekster",
				"Bruk punktlister for å presentere relatert informasjon",
				"Hold avsnitt under 4-5 setninger",
			),
		})
	}

	if in.LIX > 45 {
		out = append(out, domain.Recommendation{
			Type:        "visual_aids",
			Title:       "Visuelle hjelpemidler",
			Description: "Kompleks informasjon kan presenteres visuelt.",
			Suggestion:  "Inkluder tabeller, diagrammer eller illustrasjoner for å forklare komplekse konsepter.",
			Impact:      "medium",
			Examples: in.examples(
				"Bruk diagrammer for å vise sammenhenger",
				"Bruk tabeller for å organisere data",
				"Legg til illustrasjoner for å forklare prosesser",
			),
		})
	}

	switch in.UserContext.Purpose() {
	case "education":
		if in.LIX > 35 {
			out = append(out, domain.Recommendation{
				Type:        "educational_content",
				Title:       "Tilpass for læring",
				Description: "Teksten kan være krevende for en utdanningskontekst.",
				Suggestion:  "Bruk pedagogiske virkemidler som eksempler, oppsummeringer og visuelle hjelpemidler.",
				Impact:      "high",
				Examples: in.examples(
					"Legg til: 'For eksempel...' for å illustrere komplekse konsepter",
					"Bruk oppsummeringspunkter etter lengre avsnitt",
					"Inkluder visuelle hjelpemidler for å støtte teksten",
				),
			})
		}
	case "business":
		if in.LIX > 45 {
			out = append(out, domain.Recommendation{
				Type:        "business_communication",
				Title:       "Fokuser budskapet",
				Description: "Forretningskommunikasjon bør være klar og konsis.",
				Suggestion:  "Bruk aktiv stemme, fremhev nøkkelpunkter og unngå unødvendig jargong.",
				Impact:      "medium",
				Examples: in.examples(
					"Start med hovedpoenget i hvert avsnitt",
					"Bruk kulepunkter for viktige elementer",
					"Unngå passive formuleringer: 'Rapporten ble utarbeidet' → 'Vi utarbeidet rapporten'",
				),
			})
		}
	}

	if in.RIX > 4.0 {
		out = append(out, domain.Recommendation{
			Type:        "rix_recommendation",
			Title:       "Balansere ordlengde",
			Description: fmt.Sprintf("RIX-score på %.1f indikerer mange lange ord.", in.RIX),
			Suggestion:  "Reduser antall lange ord for å bedre flyten i teksten.",
			Impact:      "medium",
			Examples: in.examples(
				"Bruk kortere alternativer: 'anvende' → 'bruke'",
				"Varier mellom korte og lange ord for bedre rytme",
			),
		})
	}

	if len(out) == 0 {
		if in.LIX < 30 {
			out = append(out, domain.Recommendation{
				Type:        "positive_feedback",
				Title:       "Utmerket lesbarhet",
				Description: fmt.Sprintf("Teksten har en LIX-score på %.1f, som indikerer svært god lesbarhet.", in.LIX),
				Suggestion:  "Teksten er allerede svært lettlest og tilgjengelig for de fleste lesere.",
				Impact:      "low",
			})
		} else {
			out = append(out, domain.Recommendation{
				Type:        "positive_feedback",
				Title:       "God lesbarhet",
				Description: fmt.Sprintf("Teksten har en LIX-score på %.1f, som indikerer god lesbarhet.", in.LIX),
				Suggestion:  "Teksten har god balanse mellom setningslengde og ordvalg.",
				Impact:      "low",
			})
		}
	}

	return out
}

// examples returns nil in simplified mode, else the given list. Every rule,
// "sentence_structure" included, passes its examples through this helper;
// simplified mode is the only case in which examples are suppressed.
func (in Input) examples(items ...string) []string {
	if in.Simplified {
		return nil
	}
	return items
}
