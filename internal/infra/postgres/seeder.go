package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"trivia-service/internal/bank"
	"trivia-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID         int64           `bun:"id,pk,autoincrement"`
	Prompt     string          `bun:"prompt,notnull"`
	Difficulty string          `bun:"difficulty,notnull"`
	Version    int             `bun:"version,notnull"`
	Type       string          `bun:"type,notnull"`
	Data       domain.Question `bun:"data,type:jsonb"`
}

type poolRow struct {
	ID   int64  `bun:"id,pk,autoincrement"`
	Text string `bun:"text,notnull"`
}

// SeedStats counts rows written by Seed.
type SeedStats struct {
	Questions int
	Fillers   int
	Good      int
	Bad       int
}

// Seed upserts a bank into the trivia tables in one transaction. Questions
// are matched by prompt; pool entries already present are left alone.
func Seed(ctx context.Context, db *bun.DB, b bank.Bank) (SeedStats, error) {
	var stats SeedStats
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(b.Questions) > 0 {
			rows := make([]questionRow, 0, len(b.Questions))
			index := make(map[string]int, len(b.Questions))
			for _, q := range b.Questions {
				q.ID = ""
				row := questionRow{
					Prompt:     q.Prompt,
					Difficulty: string(q.Difficulty),
					Version:    q.Version,
					Type:       q.Type,
					Data:       q,
				}
				// a single upsert cannot touch the same prompt twice
				if i, dup := index[q.Prompt]; dup {
					rows[i] = row
					continue
				}
				index[q.Prompt] = len(rows)
				rows = append(rows, row)
			}
			res, err := tx.NewInsert().
				Model(&rows).
				On("CONFLICT (prompt) DO UPDATE").
				Set("difficulty = EXCLUDED.difficulty").
				Set("version = EXCLUDED.version").
				Set("type = EXCLUDED.type").
				Set("data = EXCLUDED.data").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
			stats.Questions = affected(res)
		}

		var err error
		if stats.Fillers, err = seedPool(ctx, tx, fillerTable, b.Fillers); err != nil {
			return err
		}
		if stats.Good, err = seedPool(ctx, tx, goodTable, b.Good); err != nil {
			return err
		}
		if stats.Bad, err = seedPool(ctx, tx, badTable, b.Bad); err != nil {
			return err
		}
		return nil
	})
	return stats, err
}

func seedPool(ctx context.Context, tx bun.Tx, table string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([]poolRow, len(items))
	for i, item := range items {
		rows[i] = poolRow{Text: item}
	}
	res, err := tx.NewInsert().
		Model(&rows).
		ModelTableExpr(table).
		On("CONFLICT (text) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return affected(res), nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func affected(res rowsAffected) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
