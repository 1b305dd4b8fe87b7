package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"maitred/internal/models"
)

func (db *DB) CreateMenuCategory(ctx context.Context, category *models.MenuCategory) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO menu_categories (restaurant_id, name, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		category.RestaurantID, category.Name, category.SortOrder, now, now)
	if err != nil {
		return fmt.Errorf("create menu category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	category.ID = id
	category.CreatedAt = now
	category.UpdatedAt = now
	return nil
}

func (db *DB) GetMenuCategories(ctx context.Context, restaurantID int64) ([]*models.MenuCategory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, restaurant_id, name, sort_order, created_at, updated_at
		 FROM menu_categories WHERE restaurant_id = ? ORDER BY sort_order, name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query menu categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.MenuCategory
	for rows.Next() {
		c := &models.MenuCategory{}
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan menu category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (db *DB) UpdateMenuCategory(ctx context.Context, category *models.MenuCategory) error {
	result, err := db.ExecContext(ctx,
		`UPDATE menu_categories SET name = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.SortOrder, time.Now().UTC(), category.ID)
	if err != nil {
		return fmt.Errorf("update menu category: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const menuItemColumns = `id, restaurant_id, category_id, name, description, price, is_available, sort_order, created_at, updated_at`

func scanMenuItem(scanner interface{ Scan(...any) error }) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	var price string
	err := scanner.Scan(&item.ID, &item.RestaurantID, &item.CategoryID, &item.Name,
		&item.Description, &price, &item.IsAvailable, &item.SortOrder,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse menu item price %q: %w", price, err)
	}
	return item, nil
}

func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO menu_items (restaurant_id, category_id, name, description, price, is_available, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RestaurantID, item.CategoryID, item.Name, item.Description,
		item.Price.String(), item.IsAvailable, item.SortOrder, now, now)
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	row := db.QueryRowContext(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = ?`, id)
	item, err := scanMenuItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

// GetMenuItems returns a restaurant's items, optionally filtered to one
// category (categoryID 0 means all).
func (db *DB) GetMenuItems(ctx context.Context, restaurantID, categoryID int64) ([]*models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = ?`
	args := []any{restaurantID}
	if categoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY sort_order, name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (db *DB) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	result, err := db.ExecContext(ctx,
		`UPDATE menu_items SET category_id = ?, name = ?, description = ?, price = ?, is_available = ?, sort_order = ?, updated_at = ?
		 WHERE id = ?`,
		item.CategoryID, item.Name, item.Description, item.Price.String(),
		item.IsAvailable, item.SortOrder, time.Now().UTC(), item.ID)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMenuItemAvailability flips the 86'd flag without touching other fields.
func (db *DB) SetMenuItemAvailability(ctx context.Context, id int64, available bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE menu_items SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set menu item availability: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteMenuItem(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
