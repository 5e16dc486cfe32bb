// Package store holds the handful of generic data-access helpers the
// services are written against.
package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// FindByID loads the row of type T with primary key id. It returns
// gorm.ErrRecordNotFound when there is none.
func FindByID[T any](ctx context.Context, db *gorm.DB, id uint, preloads ...string) (*T, error) {
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}

	var row T
	if err := q.First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// InsertAtomic runs fn inside a transaction. The transaction commits only if
// fn returns nil and rolls back on error or panic.
func InsertAtomic(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// DeleteWhere deletes every T matching the condition and reports how many
// rows went away.
func DeleteWhere[T any](ctx context.Context, db *gorm.DB, query any, args ...any) (int64, error) {
	result := db.WithContext(ctx).Where(query, args...).Delete(new(T))
	return result.RowsAffected, result.Error
}

// ExistsWhere reports whether any T matches the condition.
func ExistsWhere[T any](ctx context.Context, db *gorm.DB, query any, args ...any) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(new(T)).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

// PluckIDs returns column for every T matching the condition.
func PluckIDs[T any](ctx context.Context, db *gorm.DB, column string, query any, args ...any) ([]uint, error) {
	var ids []uint
	err := db.WithContext(ctx).Model(new(T)).Where(query, args...).Pluck(column, &ids).Error
	return ids, err
}

// SumGroupedBy runs q as SELECT <groupBy...>, SUM(sumExpr) AS alias GROUP BY
// <groupBy...> ORDER BY <groupBy...> and scans the rows into R. Each group
// column is selected under its unqualified name.
func SumGroupedBy[R any](ctx context.Context, q *gorm.DB, sumExpr, alias string, groupBy ...string) ([]R, error) {
	selects := make([]string, 0, len(groupBy)+1)
	for _, col := range groupBy {
		selects = append(selects, col+" AS "+unqualified(col))
	}
	selects = append(selects, "SUM("+sumExpr+") AS "+alias)

	cols := strings.Join(groupBy, ", ")
	rows := []R{}
	err := q.WithContext(ctx).
		Select(strings.Join(selects, ", ")).
		Group(cols).
		Order(cols).
		Scan(&rows).Error
	return rows, err
}

func unqualified(col string) string {
	if i := strings.LastIndex(col, "."); i >= 0 {
		return col[i+1:]
	}
	return col
}
