package main

import (
	"context"
	"encoding/json"

	"github.com/crlsmrls/lixservice/config"
	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/internal/pubsub"
	"github.com/crlsmrls/lixservice/internal/registry"
)

// wireBusHandlers registers the pub/sub and persistent-queue handlers
// that route bus traffic through the same analysis path the HTTP
// surface uses, per spec.md §4.8/§4.9.
func wireBusHandlers(reg *registry.Registry, cfg *config.Config) {
	reg.PubSub.RegisterHandler("lix", func(ctx context.Context, env pubsub.Envelope) (any, error) {
		text := domain.NewText(env.Text, false, true, cfg.Thresholds.Small, cfg.Thresholds.Large, cfg.Thresholds.Background)
		rec := reg.Readability.Analyze(text, domain.Options{IncludeSentenceAnalysis: true})
		return rec, nil
	})

	reg.PubSub.RegisterHandler("grammar", func(ctx context.Context, env pubsub.Envelope) (any, error) {
		return reg.Grammar.Analyze(ctx, env.Text, nil)
	})
	reg.PubSub.RegisterHandler("spellcheck", func(ctx context.Context, env pubsub.Envelope) (any, error) {
		return reg.Spellcheck.Analyze(ctx, env.Text, nil)
	})
	reg.PubSub.RegisterHandler("nlp", func(ctx context.Context, env pubsub.Envelope) (any, error) {
		return reg.NLP.Analyze(ctx, env.Text, nil)
	})

	reg.Queue.RegisterHandler(func(ctx context.Context, payload []byte) error {
		env, err := pubsub.ParseEnvelope(payload)
		if err != nil {
			return err
		}
		text := domain.NewText(env.Text, false, true, cfg.Thresholds.Small, cfg.Thresholds.Large, cfg.Thresholds.Background)
		rec := reg.Readability.Analyze(text, domain.Options{IncludeSentenceAnalysis: true})
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		reg.Cache.SetAnalysis(text.Fingerprint, string(raw), text.Class)
		return nil
	})
}
