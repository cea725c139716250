package db

import (
	"context"
	"database/sql"

	"github.com/denissonlm/AcoCameras/internal/model"
)

func ListLayouts(ctx context.Context, database *sql.DB) ([]model.DivisionLayout, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, division_id, background_image_url, background_rotation, placed_cameras, created_at
		 FROM layouts ORDER BY division_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layouts []model.DivisionLayout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, *l)
	}
	return layouts, rows.Err()
}

func GetLayoutByDivision(ctx context.Context, database *sql.DB, divisionID int64) (*model.DivisionLayout, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, division_id, background_image_url, background_rotation, placed_cameras, created_at
		 FROM layouts WHERE division_id = ?`, divisionID)
	l, err := scanLayout(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func UpdateLayout(ctx context.Context, database *sql.DB, l *model.DivisionLayout) error {
	placed, err := EncodePlacements(l.PlacedCameras)
	if err != nil {
		return err
	}
	res, err := database.ExecContext(ctx,
		`UPDATE layouts SET background_image_url = ?, background_rotation = ?, placed_cameras = ?
		 WHERE id = ?`,
		nullString(l.BackgroundImageURL), l.BackgroundRotation, placed, l.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// UpsertLayout writes the layout keyed by division_id and fills in its ID.
func UpsertLayout(ctx context.Context, database *sql.DB, l *model.DivisionLayout) error {
	placed, err := EncodePlacements(l.PlacedCameras)
	if err != nil {
		return err
	}
	err = database.QueryRowContext(ctx,
		`INSERT INTO layouts (division_id, background_image_url, background_rotation, placed_cameras)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(division_id) DO UPDATE SET
		   background_image_url = excluded.background_image_url,
		   background_rotation = excluded.background_rotation,
		   placed_cameras = excluded.placed_cameras
		 RETURNING id`,
		l.DivisionID, nullString(l.BackgroundImageURL), l.BackgroundRotation, placed,
	).Scan(&l.ID)
	return err
}

func scanLayout(s rowScanner) (*model.DivisionLayout, error) {
	var l model.DivisionLayout
	var url sql.NullString
	var placed string
	var createdAt SQLiteTime
	if err := s.Scan(&l.ID, &l.DivisionID, &url, &l.BackgroundRotation, &placed, &createdAt); err != nil {
		return nil, err
	}
	l.BackgroundImageURL = stringPtr(url)
	l.PlacedCameras = DecodePlacements(placed)
	l.CreatedAt = createdAt.Time
	return &l, nil
}
