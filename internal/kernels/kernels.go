package kernels

import "github.com/crlsmrls/lixservice/internal/domain"

// Compute derives the full MetricBundle from a ParsedText. Empty text (zero
// words) yields all-zero scores with every band "unavailable", per the
// empty-input invariant.
func Compute(p domain.ParsedText) domain.MetricBundle {
	counts := CountsFromWords(p.Words, p.SentenceCount())

	if counts.W == 0 || counts.S == 0 {
		return domain.MetricBundle{
			LIX:           domain.MetricResult{Score: 0, Classification: unavailable},
			RIX:           domain.MetricResult{Score: 0, Classification: unavailable},
			SMOG:          domain.MetricResult{Score: 0, Classification: unavailable},
			ColemanLiau:   domain.MetricResult{Score: 0, Classification: unavailable},
			Flesch:        domain.MetricResult{Score: 0, Classification: unavailable},
			FleschKincaid: domain.MetricResult{Score: 0, Classification: unavailable},
			Fog:           domain.MetricResult{Score: 0, Classification: unavailable},
			ARI:           domain.MetricResult{Score: 0, Classification: unavailable},
		}
	}

	lixScore := round(LIX(counts), 1)
	rixScore := round(RIX(counts), 2)
	smogScore := round(SMOG(counts), 2)
	clScore := round(ColemanLiau(counts), 2)
	fleschScore := round(Flesch(counts), 2)
	fkScore := round(FleschKincaid(counts), 2)
	fogScore := round(Fog(counts), 2)
	ariScore := round(ARI(counts), 2)

	return domain.MetricBundle{
		LIX:           domain.MetricResult{Score: lixScore, Classification: classifyAscending("lix", lixScore, lixBands)},
		RIX:           domain.MetricResult{Score: rixScore, Classification: classifyAscending("rix", rixScore, rixBands)},
		SMOG:          domain.MetricResult{Score: smogScore, Classification: classifyAscending("smog", smogScore, gradeLevelBands("SMOG"))},
		ColemanLiau:   domain.MetricResult{Score: clScore, Classification: classifyAscending("coleman_liau", clScore, gradeLevelBands("Coleman-Liau"))},
		Flesch:        domain.MetricResult{Score: fleschScore, Classification: classifyFlesch(fleschScore)},
		FleschKincaid: domain.MetricResult{Score: fkScore, Classification: classifyAscending("flesch_kincaid", fkScore, gradeLevelBands("Flesch-Kincaid"))},
		Fog:           domain.MetricResult{Score: fogScore, Classification: classifyAscending("fog", fogScore, gradeLevelBands("Fog"))},
		ARI:           domain.MetricResult{Score: ariScore, Classification: classifyAscending("ari", ariScore, gradeLevelBands("ARI"))},
	}
}
