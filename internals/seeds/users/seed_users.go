package users

import (
	"context"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"coursereg_backend/internals/constants"
	"coursereg_backend/internals/features/users/model"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type UserSeed struct {
	UserName string   `json:"user_name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// UserCreator is satisfied by the auth service.
type UserCreator interface {
	CreateUser(ctx context.Context, name, email, password string, roles []constants.Role) (*model.UserModel, error)
}

// SeedUsersFromJSON inserts every account in filePath. Existing emails are
// skipped, so the seed can run on every boot.
func SeedUsersFromJSON(ctx context.Context, creator UserCreator, filePath string, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("📥 Membaca file user", zap.String("file", filePath))

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, err
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return 0, err
	}

	created := 0
	for _, data := range inputs {
		email := strings.ToLower(strings.TrimSpace(data.Email))
		roles := helperAuth.ParseRoles(data.Roles)
		if len(roles) == 0 {
			roles = []constants.Role{constants.RoleStudent}
		}

		_, err := creator.CreateUser(ctx, strings.TrimSpace(data.UserName), email, data.Password, roles)
		switch {
		case helper.IsKind(err, helper.KindConflict):
			log.Info("ℹ️ User sudah ada, dilewati", zap.String("email", email))
		case err != nil:
			log.Error("❌ Gagal insert user", zap.String("email", email), zap.Error(err))
		default:
			created++
			log.Info("✅ Berhasil insert user", zap.String("email", email))
		}
	}
	return created, nil
}
