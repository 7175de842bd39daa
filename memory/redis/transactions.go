package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	skerrors "github.com/skreaver-dev/skreaver/errors"
	"github.com/skreaver-dev/skreaver/memory"
)

// txWriter buffers writes issued inside a Transaction closure and only
// queues them onto the MULTI pipeline; nothing is visible until EXEC.
type txWriter struct {
	pipe   goredis.Pipeliner
	conn   *Connected
}

func (w *txWriter) Store(ctx context.Context, update memory.Update) error {
	w.pipe.Set(ctx, w.conn.prefixedKey(update.Key.String()), update.Value, 0)
	return nil
}

func (w *txWriter) StoreMany(ctx context.Context, updates []memory.Update) error {
	for _, u := range updates {
		if err := w.Store(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

// Transaction buffers the closure's writes via MULTI, then EXECs them as one
// unit. An empty command result set from EXEC (the server aborted the
// transaction, e.g. because a WATCHed key changed) is surfaced as a
// TransactionFailed-flavored MemoryError.
func (m *Memory) Transaction(ctx context.Context, fn func(ctx context.Context, w memory.TxWriter) error) error {
	pipe := m.conn.client.TxPipeline()
	w := &txWriter{pipe: pipe, conn: m.conn}

	if err := fn(ctx, w); err != nil {
		pipe.Discard()
		return err
	}

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return sanitize(skerrors.OpStore, err)
	}
	if len(cmds) == 0 {
		return skerrors.New(skerrors.InternalError, skerrors.OpStore, skerrors.BackendRedis, "transaction aborted: EXEC returned no results")
	}
	return nil
}
