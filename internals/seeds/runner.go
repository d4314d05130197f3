package seeds

import (
	"context"

	"go.uber.org/zap"

	"coursereg_backend/internals/configs"
	users "coursereg_backend/internals/seeds/users"
)

// RunAllSeeds runs the seeds enabled by cfg. Failures are logged, never fatal.
func RunAllSeeds(ctx context.Context, cfg configs.Config, creator users.UserCreator, log *zap.Logger) {
	//* User
	if cfg.SeedUsersFile != "" {
		n, err := users.SeedUsersFromJSON(ctx, creator, cfg.SeedUsersFile, log)
		if err != nil {
			log.Error("❌ Seed user gagal", zap.Error(err))
			return
		}
		log.Info("🌱 Seed user selesai", zap.Int("created", n))
	}
}
