package kernels

import (
	"sync"

	"github.com/crlsmrls/lixservice/internal/domain"
)

// classificationCache memoizes a Classification by (metric name, rounded
// score), mirroring the original's per-metric _classification_cache dict
// without needing one goroutine-unsafe cache per metric.
type classificationCache struct {
	mu    sync.Mutex
	byKey map[string]domain.Classification
}

var bandCache = &classificationCache{byKey: make(map[string]domain.Classification)}

func (c *classificationCache) get(key string) (domain.Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.byKey[key]
	return v, ok
}

func (c *classificationCache) put(key string, v domain.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[key] = v
}

// band is one threshold tier: scores below Max classify here.
type band struct {
	Max             float64 // exclusive upper bound; last tier ignores Max
	Band            domain.Band
	Category        string
	Description     string
	Audience        string
	ImprovementTips []string
}

// classifyAscending classifies score against tiers ordered easiest-first,
// where a higher score means harder text (LIX, RIX, and every grade-level
// metric). empty text (handled by callers before reaching here) always
// yields BandUnavailable.
func classifyAscending(metric string, score float64, tiers []band) domain.Classification {
	key := metricCacheKey(metric, score)
	if cached, ok := bandCache.get(key); ok {
		return cached
	}

	var chosen band
	for _, t := range tiers {
		chosen = t
		if score < t.Max {
			break
		}
	}

	result := domain.Classification{
		Band:            chosen.Band,
		Category:        chosen.Category,
		Description:     chosen.Description,
		Audience:        chosen.Audience,
		ImprovementTips: chosen.ImprovementTips,
	}
	bandCache.put(key, result)
	return result
}

func metricCacheKey(metric string, score float64) string {
	return metric + ":" + formatCacheScore(score)
}

func formatCacheScore(score float64) string {
	// Two decimal places is enough resolution for every metric's rounding
	// precision (LIX rounds to 1dp, the rest to 2dp) to collide correctly.
	r := round(score, 2)
	return floatToKey(r)
}

func floatToKey(f float64) string {
	// Avoid importing strconv's full Format surface for one call site;
	// fixed-point with a known scale is enough for a cache key.
	scaled := int64(round(f*100, 0))
	return itoa(scaled)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var unavailable = domain.Classification{
	Band:            domain.BandUnavailable,
	Category:        "ikke tilgjengelig",
	Description:     "Teksten er for kort til å klassifiseres.",
	Audience:        "",
	ImprovementTips: nil,
}

// lixBands holds the LIX thresholds and Norwegian classification copy,
// grounded on lix_metric.py's classify(), with thresholds overridden to
// spec.md's authoritative 20/30/40/50.
var lixBands = []band{
	{
		Max: 20, Band: domain.BandVeryEasy, Category: "svært lett",
		Description:     "Teksten er svært lettlest og egnet for alle lesere.",
		Audience:        "Alle lesere, inkludert barn og nybegynnere.",
		ImprovementTips: []string{"Teksten er allerede svært lettlest."},
	},
	{
		Max: 30, Band: domain.BandEasy, Category: "lett",
		Description: "Teksten er lettlest og tilgjengelig for de fleste.",
		Audience:    "Generelt publikum, inkludert ungdomsskoleelever.",
		ImprovementTips: []string{
			"Teksten er allerede lettlest.",
			"Vurder om korte setninger gir god flyt.",
		},
	},
	{
		Max: 40, Band: domain.BandMedium, Category: "middels",
		Description: "Teksten har middels vanskelighetsgrad.",
		Audience:    "Voksne lesere og videregående skoleelever.",
		ImprovementTips: []string{
			"Vurder å forenkle noen lange ord.",
			"Se etter setninger som kan deles opp.",
		},
	},
	{
		Max: 50, Band: domain.BandDifficult, Category: "vanskelig",
		Description: "Teksten er relativt krevende å lese.",
		Audience:    "Lesere med god lesekompetanse, høyere utdanning.",
		ImprovementTips: []string{
			"Bruk kortere setninger (under 15-20 ord).",
			"Erstatt noen lange ord med kortere alternativer.",
			"Del opp komplekse avsnitt.",
		},
	},
	{
		Max: 0 /* unused, last tier */, Band: domain.BandVeryDifficult, Category: "svært vanskelig",
		Description: "Teksten er svært krevende og kompleks.",
		Audience:    "Spesialister, akademikere, avanserte lesere.",
		ImprovementTips: []string{
			"Del lange setninger i kortere enheter.",
			"Bruk enklere og kortere ord der mulig.",
			"Vurder om fagterminologi kan forklares.",
			"Legg til mellomtitler for å bryte opp teksten.",
		},
	},
}

// rixBands mirrors rix_metric.py's classify() copy, thresholds overridden
// to spec.md's authoritative 1.5/3.0/4.5/6.0.
var rixBands = []band{
	{
		Max: 1.5, Band: domain.BandVeryEasy, Category: "svært lett",
		Description:     "Teksten har få lange ord per setning, noe som gjør den svært lettlest.",
		Audience:        "Alle lesere, inkludert barn og nybegynnere.",
		ImprovementTips: []string{"Teksten er allerede svært lettlest."},
	},
	{
		Max: 3.0, Band: domain.BandEasy, Category: "lett",
		Description:     "Teksten har en god balanse av korte og lange ord.",
		Audience:        "Generelt publikum, inkludert ungdomsskoleelever.",
		ImprovementTips: []string{"Teksten er allerede lettlest."},
	},
	{
		Max: 4.5, Band: domain.BandMedium, Category: "middels",
		Description:     "Teksten har en del lange ord, men er fortsatt lesbar for de fleste.",
		Audience:        "Voksne lesere og videregående skoleelever.",
		ImprovementTips: []string{"Vurder å erstatte noen lange ord med kortere alternativer."},
	},
	{
		Max: 6.0, Band: domain.BandDifficult, Category: "vanskelig",
		Description: "Teksten har mange lange ord, noe som gjør den krevende å lese.",
		Audience:    "Lesere med god lesekompetanse, høyere utdanning.",
		ImprovementTips: []string{
			"Erstatt noen lange ord med kortere alternativer.",
			"Sørg for at vanskelige begreper forklares.",
			"Varier mellom korte og lange ord for bedre flyt.",
		},
	},
	{
		Band: domain.BandVeryDifficult, Category: "svært vanskelig",
		Description: "Teksten har svært mange lange ord per setning, noe som gjør den kompleks.",
		Audience:    "Spesialister, akademikere, avanserte lesere.",
		ImprovementTips: []string{
			"Bruk flere korte ord for å balansere teksten.",
			"Del setninger med mange lange ord.",
			"Forklar eller definer vanskelige begreper.",
		},
	},
}

// gradeLevelBands builds a generic five-tier classification for the
// grade-level metrics (SMOG, Coleman-Liau, Flesch-Kincaid, Fog, ARI), which
// spec.md leaves unthresholded beyond "closed ordered band set": thresholds
// follow the conventional US grade-level bands these formulas were
// calibrated against (grade <7, <9, <11, <13, else).
func gradeLevelBands(name string) []band {
	return []band{
		{
			Max: 7, Band: domain.BandVeryEasy, Category: "svært lett",
			Description: name + "-nivået tilsvarer en svært lettlest tekst.",
			Audience:    "Alle lesere, inkludert barn og nybegynnere.",
		},
		{
			Max: 9, Band: domain.BandEasy, Category: "lett",
			Description: name + "-nivået tilsvarer en lettlest tekst.",
			Audience:    "Generelt publikum.",
		},
		{
			Max: 11, Band: domain.BandMedium, Category: "middels",
			Description: name + "-nivået tilsvarer middels vanskelighetsgrad.",
			Audience:    "Voksne lesere og videregående skoleelever.",
		},
		{
			Max: 13, Band: domain.BandDifficult, Category: "vanskelig",
			Description: name + "-nivået tilsvarer en krevende tekst.",
			Audience:    "Lesere med god lesekompetanse, høyere utdanning.",
		},
		{
			Band: domain.BandVeryDifficult, Category: "svært vanskelig",
			Description: name + "-nivået tilsvarer en svært krevende og kompleks tekst.",
			Audience:    "Spesialister, akademikere, avanserte lesere.",
		},
	}
}

// fleschBands is the one descending metric: higher score means easier, so
// tiers are ordered very-easy-first and matched on score >= Min.
var fleschBands = []struct {
	Min      float64
	Band     domain.Band
	Category string
}{
	{90, domain.BandVeryEasy, "svært lett"},
	{70, domain.BandEasy, "lett"},
	{50, domain.BandMedium, "middels"},
	{30, domain.BandDifficult, "vanskelig"},
	{-1 << 62, domain.BandVeryDifficult, "svært vanskelig"},
}

func classifyFlesch(score float64) domain.Classification {
	key := metricCacheKey("flesch", score)
	if cached, ok := bandCache.get(key); ok {
		return cached
	}

	var chosen domain.Band
	var category string
	for _, t := range fleschBands {
		if score >= t.Min {
			chosen, category = t.Band, t.Category
			break
		}
	}

	result := domain.Classification{
		Band:        chosen,
		Category:    category,
		Description: "Flesch-skåren (0-100, høyere er lettere) plasserer teksten i kategorien " + category + ".",
		Audience:    audienceForBand(chosen),
	}
	bandCache.put(key, result)
	return result
}

func audienceForBand(b domain.Band) string {
	switch b {
	case domain.BandVeryEasy:
		return "Alle lesere, inkludert barn og nybegynnere."
	case domain.BandEasy:
		return "Generelt publikum."
	case domain.BandMedium:
		return "Voksne lesere og videregående skoleelever."
	case domain.BandDifficult:
		return "Lesere med god lesekompetanse, høyere utdanning."
	default:
		return "Spesialister, akademikere, avanserte lesere."
	}
}
