// Package viperlog is an embeddable structured logging library with a
// built-in search engine. Every logged event is persisted to an append-only
// JSON-lines store and indexed in memory; callers can then retrieve events
// by exact term, approximate (fuzzy) term, boolean expression, or through a
// fluent query builder.
//
//	logger, err := viperlog.New("checkout",
//		viperlog.WithConfigFile("viperlog.yaml"),
//	)
//	if err != nil { ... }
//	defer logger.Close()
//
//	id, _ := logger.Error(ctx, "u-42", "charge", "payment gateway timeout", "billing", nil)
//
//	ids, _ := logger.BooleanSearch(`billing AND (timeout OR refused) NOT retry`)
//	matches, _ := logger.FuzzySearch("timeou", 0.7)
//	recent, _ := logger.Query().
//		WithLevel("ERROR", "FATAL").
//		FromComponent("billing").
//		InTimeframe(time.Now().Add(-time.Hour), time.Time{}).
//		Execute(ctx)
//
// The index is rebuilt from the store on startup and never persisted itself.
package viperlog
