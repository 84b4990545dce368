package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
)

const (
	settingsCollection = "settings"
	settingsDocID      = "clinic"
)

type SettingsRepository struct {
	coll *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{coll: db.Collection(settingsCollection)}
}

func (r *SettingsRepository) Get(ctx context.Context) (*models.ClinicSettings, error) {
	var s models.ClinicSettings
	if err := r.coll.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return &s, nil
}

// Replace upserts the singleton document and returns the previous version.
func (r *SettingsRepository) Replace(ctx context.Context, s *models.ClinicSettings) (*models.ClinicSettings, error) {
	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var previous models.ClinicSettings
	err := r.coll.FindOneAndReplace(ctx, bson.M{"_id": settingsDocID}, s, opts).Decode(&previous)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.ClinicSettings{}, nil
		}
		return nil, fmt.Errorf("replace settings: %w", err)
	}
	return &previous, nil
}
