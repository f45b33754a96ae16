package storage

import (
	"context"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
)

// Seed is a campaign inserted at startup when missing.
type Seed struct {
	Campaign   game.Campaign
	Characters []game.Character
}

// sqlitePragmas are applied by the driver to every pooled connection. SQLite
// has a single writer; concurrent commits wait up to 5s.
const sqlitePragmas = "_busy_timeout=5000&_foreign_keys=on"

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

func OpenAndMigrate(dataSourceName string, seeds []Seed) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dataSourceName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Campaign{},
		&game.Character{},
		&game.InventoryItem{},
		&game.CombatSession{},
		&game.Combatant{},
		&game.TurnOrderEntry{},
		&game.ActionEvent{},
		&game.RewardGrant{},
		&game.IdempotencyRecord{},
	)
	if err != nil {
		return nil, err
	}

	seedCampaigns(db, seeds)
	return db, nil
}

// seedCampaigns inserts configured campaigns. Failures are logged and do
// not abort startup.
func seedCampaigns(db *gorm.DB, seeds []Seed) {
	repo := &sqliteRepository{db: db}
	for i := range seeds {
		s := &seeds[i]
		created, err := repo.SeedCampaign(context.Background(), &s.Campaign, s.Characters)
		if err != nil {
			logging.Error("failed to seed campaign", err, logging.Fields{constants.LogFieldCampaignID: s.Campaign.ID})
			continue
		}
		if created {
			logging.Info("campaign seeded", logging.Fields{
				constants.LogFieldCampaignID: s.Campaign.ID,
				"characters":                 len(s.Characters),
			})
		}
	}
}
