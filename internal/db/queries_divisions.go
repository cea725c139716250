package db

import (
	"context"
	"database/sql"

	"github.com/denissonlm/AcoCameras/internal/model"
)

func ListDivisions(ctx context.Context, database *sql.DB) ([]model.Division, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, name, created_at FROM divisions ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var divisions []model.Division
	for rows.Next() {
		var d model.Division
		var createdAt SQLiteTime
		if err := rows.Scan(&d.ID, &d.Name, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.Time
		divisions = append(divisions, d)
	}
	return divisions, rows.Err()
}

func CreateDivision(ctx context.Context, database *sql.DB, name string) (int64, error) {
	res, err := database.ExecContext(ctx, `INSERT INTO divisions (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func UpdateDivision(ctx context.Context, database *sql.DB, id int64, name string) error {
	res, err := database.ExecContext(ctx, `UPDATE divisions SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func DeleteDivision(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM divisions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}
