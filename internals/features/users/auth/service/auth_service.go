package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursereg_backend/internals/constants"
	"coursereg_backend/internals/features/users/auth/dto"
	"coursereg_backend/internals/features/users/model"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

const accessTTLDefault = 24 * time.Hour

type AuthService struct {
	DB     *gorm.DB
	Secret string
	TTL    time.Duration
	Log    *zap.Logger
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration, log *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = accessTTLDefault
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{DB: db, Secret: secret, TTL: ttl, Log: log.Named("auth")}
}

/* ==========================
   REGISTER
========================== */

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*model.UserModel, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	role := constants.RoleStudent
	if req.Role != "" {
		role = constants.Role(req.Role)
	}
	return s.CreateUser(ctx, req.UserName, req.UserEmail, req.Password, []constants.Role{role})
}

// CreateUser hashes the password and inserts the row. A taken email is a Conflict.
func (s *AuthService) CreateUser(ctx context.Context, name, email, password string, roles []constants.Role) (*model.UserModel, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, helper.Internal(err, "Password hashing failed")
	}
	names := make(model.RoleList, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	u := model.UserModel{
		UserName:     name,
		UserEmail:    email,
		UserPassword: hash,
		UserIsActive: true,
		UserRoles:    names,
	}

	db := s.DB.WithContext(ctx)
	var taken int64
	if err := db.Model(&model.UserModel{}).Where("user_email = ?", email).Count(&taken).Error; err != nil {
		return nil, helper.Internal(err, "gagal mengecek email")
	}
	if taken > 0 {
		return nil, helper.Conflict("Email already registered")
	}
	if err := db.Create(&u).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, helper.Conflict("Email already registered")
		}
		return nil, helper.Internal(err, "Failed to create user")
	}
	s.Log.Info("user registered", zap.Uint("user_id", u.UserID), zap.Strings("roles", names))
	return &u, nil
}

/* ==========================
   LOGIN
========================== */

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var u model.UserModel
	err := s.DB.WithContext(ctx).Where("user_email = ?", req.UserEmail).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.Unauthorized("Email atau password salah")
	}
	if err != nil {
		return nil, helper.Internal(err, "gagal mengambil user")
	}
	if err := CheckPasswordHash(u.UserPassword, req.Password); err != nil {
		return nil, helper.Unauthorized("Email atau password salah")
	}
	if !u.UserIsActive {
		return nil, helper.Forbidden("Akun dinonaktifkan")
	}

	roles := helperAuth.ParseRoles(u.UserRoles)
	token, exp, err := helperAuth.IssueToken(s.Secret, u.UserID, roles, s.TTL)
	if err != nil {
		return nil, helper.Internal(err, "gagal membuat token")
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp.UTC(),
		User:        dto.NewUserResponse(&u),
	}, nil
}

/* ==========================
   ME
========================== */

func (s *AuthService) Me(ctx context.Context, userID uint) (*model.UserModel, error) {
	var u model.UserModel
	err := s.DB.WithContext(ctx).First(&u, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.NotFound("User not found")
	}
	if err != nil {
		return nil, helper.Internal(err, "gagal mengambil user")
	}
	return &u, nil
}

// DisplayName resolves a user's name, falling back to "Student <id>".
func (s *AuthService) DisplayName(ctx context.Context, userID uint) string {
	var names []string
	err := s.DB.WithContext(ctx).Model(&model.UserModel{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("user_name", &names).Error
	if err != nil || len(names) == 0 || names[0] == "" {
		return fmt.Sprintf("Student %d", userID)
	}
	return names[0]
}

// IsActive backs the JWT middleware's ActiveCheck. Unknown users are inactive.
func (s *AuthService) IsActive(ctx context.Context, userID uint) (bool, error) {
	var flags []bool
	if err := s.DB.WithContext(ctx).Model(&model.UserModel{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("user_is_active", &flags).Error; err != nil {
		return false, err
	}
	return len(flags) == 1 && flags[0], nil
}
