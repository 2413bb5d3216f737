package models

import (
	"time"
)

// User represents a HeartCare user and their optional health profile.
// UserID is the subject id issued by the external auth provider.
type User struct {
	UserID         string             `gorm:"column:user_id;primaryKey;size:50" json:"user_id"`
	Name           string             `gorm:"size:50;not null" json:"name"`
	Email          string             `gorm:"size:50;not null" json:"email"`
	PasswordHash   string             `gorm:"column:password;size:72;not null" json:"-"` // bcrypt hash, never serialized
	Age            *int               `json:"age"`
	Sex            *string            `gorm:"size:10" json:"sex"`
	HeightCm       *float64           `gorm:"column:height_cm" json:"height_cm"`
	WeightKg       *float64           `gorm:"column:weight_kg" json:"weight_kg"`
	SmokingHistory *bool              `json:"smoking_history"`
	SkinCancer     *bool              `json:"skin_cancer"`
	OtherCancer    *bool              `json:"other_cancer"`
	Diabetes       *bool              `json:"diabetes"`
	Arthritis      *bool              `json:"arthritis"`
	Depression     *bool              `json:"depression"`
	Contacts       []EmergencyContact `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Reports        []Report           `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "user"
}
