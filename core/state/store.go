package state

import (
	"context"
	"errors"
	"fmt"

	"drive-cache/core/manifest"

	"gorm.io/gorm"
)

const insertBatch = 200

// Store persists the change cursor and the committed manifest.
type Store struct {
	db *gorm.DB
}

// Open migrates the state tables and returns a store on db.
func Open(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&cursorRow{}, &headerRow{}, &assetRow{}); err != nil {
		return nil, fmt.Errorf("migrate state tables: %w", err)
	}
	return &Store{db: db}, nil
}

// LoadToken returns the stored change cursor, or "" when none was saved.
func (s *Store) LoadToken(ctx context.Context) (string, error) {
	var row cursorRow
	err := s.db.WithContext(ctx).Where("name = ?", cursorKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load change token: %w", err)
	}
	return row.Token, nil
}

// SaveToken stores the change cursor.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	row := cursorRow{Name: cursorKey, Token: token}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save change token: %w", err)
	}
	return nil
}

// LoadManifest returns the last committed snapshot. ok is false when
// nothing was committed yet.
func (s *Store) LoadManifest(ctx context.Context) (snap manifest.Snapshot, ok bool, err error) {
	db := s.db.WithContext(ctx)

	var header headerRow
	err = db.Where("id = ?", headerKey).Take(&header).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return manifest.Snapshot{}, false, nil
	}
	if err != nil {
		return manifest.Snapshot{}, false, fmt.Errorf("load manifest header: %w", err)
	}

	var rows []assetRow
	if err := db.Find(&rows).Error; err != nil {
		return manifest.Snapshot{}, false, fmt.Errorf("load manifest assets: %w", err)
	}

	assets := make(map[string]manifest.Asset, len(rows))
	for _, r := range rows {
		assets[r.ID] = manifest.Asset{
			ID:           r.ID,
			Path:         r.Path,
			Kind:         manifest.Kind(r.Kind),
			Hash:         r.Hash,
			Size:         r.Size,
			ModifiedTime: r.ModifiedTime.UTC(),
			URL:          manifest.AssetURL(r.Path),
		}
	}
	return manifest.Snapshot{Version: header.Version, UpdatedAt: header.CommittedAt, Assets: assets}, true, nil
}

// SaveManifest replaces the stored snapshot in one transaction.
func (s *Store) SaveManifest(ctx context.Context, snap manifest.Snapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := headerRow{ID: headerKey, Version: snap.Version, CommittedAt: snap.UpdatedAt}
		if err := tx.Save(&header).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&assetRow{}).Error; err != nil {
			return err
		}
		if len(snap.Assets) == 0 {
			return nil
		}

		rows := make([]assetRow, 0, len(snap.Assets))
		for id, a := range snap.Assets {
			rows = append(rows, assetRow{
				ID:           id,
				Path:         a.Path,
				Kind:         string(a.Kind),
				Hash:         a.Hash,
				Size:         a.Size,
				ModifiedTime: a.ModifiedTime,
			})
		}
		return tx.CreateInBatches(rows, insertBatch).Error
	})
	if err != nil {
		return fmt.Errorf("save manifest v%d: %w", snap.Version, err)
	}
	return nil
}
