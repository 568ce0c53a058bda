package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/viper-logs/viperlog/internal/event"
)

const replayReaders = 4

type replayDoc struct {
	id     event.ID
	fields map[string]string
}

// Replay rebuilds a search index from the store's files. Files are decoded
// concurrently; the sink is fed from a single goroutine afterwards so index
// mutations stay serialised. The read lock is held for the duration, keeping
// the file set stable against rotation and sweeps. Returns the number of
// replayed documents.
func (fs *FileStore) Replay(ctx context.Context, sink Sink) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	paths := fs.listFiles()

	decoded := make([][]replayDoc, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(replayReaders)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			events, err := decodeFile(path, fs.logger)
			if err != nil {
				return fmt.Errorf("replaying %s: %w", path, err)
			}
			docs := make([]replayDoc, len(events))
			for j, ev := range events {
				docs[j] = replayDoc{id: ev.ID, fields: ev.Fields()}
			}
			decoded[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for _, docs := range decoded {
		for _, doc := range docs {
			sink.AddDocument(doc.id, doc.fields)
			count++
		}
	}
	fs.logger.Info("index rebuilt from storage", "files", len(paths), "documents", count)
	return count, nil
}
