package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// SimilarityRow is one result of SimilarityUnion: an entity id with its
// best (MAX) cosine similarity across every searched column.
type SimilarityRow struct {
	ID         int64   `gorm:"column:id"`
	Similarity float64 `gorm:"column:similarity"`
}

// SimilarityUnion implements the C8 union-of-CTEs search described in spec
// §4.8: one CTE per embedding column (filtered non-null, ordered by the ANN
// operator, limited to candidatesPerColumn), UNION ALL'd and grouped by id
// with MAX(similarity), returning the top finalLimit rows.
//
// Vectors cannot be parameter-bound reliably across drivers, so per spec
// §4.1/§9 the query vector is rendered as a literal '[...]'::vector — this
// function is the only place in the codebase permitted to do so, and it
// only ever renders a vector the caller produced via an Embedder, never raw
// user text. whereExtra, if non-empty, is a SQL boolean expression that may
// use "?" placeholders bound positionally from whereArgs (spec §9
// "parameterize where possible") — callers must never splice a request
// value into whereExtra directly.
func SimilarityUnion(
	ctx context.Context, db *gorm.DB,
	table string, columns []string, query types.Vector,
	whereExtra string, whereArgs []interface{}, candidatesPerColumn, finalLimit int,
) ([]SimilarityRow, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	if query.IsZero() {
		return nil, errors.New(errors.KindValidation, "store: similarity query vector is empty")
	}

	literal := query.Literal()
	var ctes []string
	var selects []string
	var args []interface{}
	for i, col := range columns {
		name := fmt.Sprintf("c%d", i)
		where := fmt.Sprintf("%s IS NOT NULL", col)
		if whereExtra != "" {
			where += " AND " + whereExtra
			args = append(args, whereArgs...)
		}
		ctes = append(ctes, fmt.Sprintf(
			`%s AS (
				SELECT id, 1 - (%s <=> '%s'::vector) AS similarity
				FROM %s
				WHERE %s
				ORDER BY %s <=> '%s'::vector
				LIMIT %d
			)`, name, col, literal, table, where, col, literal, candidatesPerColumn))
		selects = append(selects, fmt.Sprintf("SELECT id, similarity FROM %s", name))
	}

	sql := fmt.Sprintf(`
		WITH %s
		SELECT id, MAX(similarity) AS similarity
		FROM (%s) unioned
		GROUP BY id
		ORDER BY similarity DESC, id ASC
		LIMIT %d`,
		strings.Join(ctes, ",\n"), strings.Join(selects, "\nUNION ALL\n"), finalLimit)

	var rows []SimilarityRow
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "store: similarity union query", err)
	}
	return rows, nil
}
