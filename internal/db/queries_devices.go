package db

import (
	"context"
	"database/sql"

	"github.com/denissonlm/AcoCameras/internal/model"
)

// ListDevices returns devices without their channels.
func ListDevices(ctx context.Context, database *sql.DB) ([]model.Device, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, name, location, type, division_id, channel_count, created_at
		 FROM devices ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		var createdAt SQLiteTime
		if err := rows.Scan(&d.ID, &d.Name, &d.Location, &d.Type, &d.DivisionID, &d.ChannelCount, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.Time
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func CreateDevice(ctx context.Context, database *sql.DB, d *model.Device) error {
	res, err := database.ExecContext(ctx,
		`INSERT INTO devices (name, location, type, division_id, channel_count) VALUES (?, ?, ?, ?, ?)`,
		d.Name, d.Location, string(d.Type), d.DivisionID, d.ChannelCount,
	)
	if err != nil {
		return err
	}
	d.ID, err = res.LastInsertId()
	return err
}

func UpdateDevice(ctx context.Context, database *sql.DB, d *model.Device) error {
	res, err := database.ExecContext(ctx,
		`UPDATE devices SET name = ?, location = ?, type = ?, division_id = ?, channel_count = ? WHERE id = ?`,
		d.Name, d.Location, string(d.Type), d.DivisionID, d.ChannelCount, d.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func DeleteDevice(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}
