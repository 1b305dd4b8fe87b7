package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"
)

const tableColumns = `id, restaurant_id, number, capacity, section, is_active, sort_order, created_at, updated_at`

func scanTable(scanner interface{ Scan(...any) error }) (*models.Table, error) {
	t := &models.Table{}
	err := scanner.Scan(&t.ID, &t.RestaurantID, &t.Number, &t.Capacity, &t.Section,
		&t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) CreateTable(ctx context.Context, table *models.Table) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO restaurant_tables (restaurant_id, number, capacity, section, is_active, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		table.RestaurantID, table.Number, table.Capacity, table.Section,
		table.IsActive, table.SortOrder, now, now)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	table.ID = id
	table.CreatedAt = now
	table.UpdatedAt = now
	return nil
}

func (db *DB) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	row := db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ?`, id)
	table, err := scanTable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	return table, nil
}

// GetTables returns all of a restaurant's tables in display order.
func (db *DB) GetTables(ctx context.Context, restaurantID int64) ([]*models.Table, error) {
	return db.queryTables(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE restaurant_id = ? ORDER BY sort_order, number`,
		restaurantID)
}

// GetActiveTables returns only tables that participate in availability.
func (db *DB) GetActiveTables(ctx context.Context, restaurantID int64) ([]*models.Table, error) {
	return db.queryTables(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE restaurant_id = ? AND is_active = 1 ORDER BY sort_order, number`,
		restaurantID)
}

func (db *DB) queryTables(ctx context.Context, query string, args ...any) ([]*models.Table, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (db *DB) UpdateTable(ctx context.Context, table *models.Table) error {
	result, err := db.ExecContext(ctx,
		`UPDATE restaurant_tables SET number = ?, capacity = ?, section = ?, is_active = ?, sort_order = ?, updated_at = ?
		 WHERE id = ?`,
		table.Number, table.Capacity, table.Section, table.IsActive, table.SortOrder,
		time.Now().UTC(), table.ID)
	if err != nil {
		return fmt.Errorf("update table: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateTable retires a table from availability without touching its
// booking history.
func (db *DB) DeactivateTable(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE restaurant_tables SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate table: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
