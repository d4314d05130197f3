package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// RoleList is stored as a native text[] on Postgres and as the same
// "{a,b}" literal in a text column elsewhere.
type RoleList []string

func (r RoleList) Value() (driver.Value, error) { return pq.StringArray(r).Value() }

func (r *RoleList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*r = RoleList(arr)
	return nil
}

// GormDataType keeps gorm from treating the slice as a relation.
func (RoleList) GormDataType() string { return "text" }

func (RoleList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type UserModel struct {
	UserID       uint     `json:"user_id"        gorm:"column:user_id;primaryKey;autoIncrement"`
	UserName     string   `json:"user_name"      gorm:"column:user_name;type:varchar(120);not null"`
	UserEmail    string   `json:"user_email"     gorm:"column:user_email;type:varchar(255);not null;uniqueIndex"`
	UserPassword string   `json:"-"              gorm:"column:user_password;type:varchar(255);not null"`
	UserIsActive bool     `json:"user_is_active" gorm:"column:user_is_active;not null;default:true"`
	UserRoles    RoleList `json:"user_roles"     gorm:"column:user_roles"`

	UserCreatedAt time.Time `json:"user_created_at" gorm:"column:user_created_at;autoCreateTime"`
	UserUpdatedAt time.Time `json:"user_updated_at" gorm:"column:user_updated_at;autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }
