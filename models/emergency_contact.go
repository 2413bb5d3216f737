package models

// EmergencyContact is a person to reach on behalf of a user.
// It has no lifecycle of its own and is removed with its user.
type EmergencyContact struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"column:user_id;size:50;not null;index" json:"-"` // foreign key to user table
	Name   string `gorm:"size:50;not null" json:"name"`
	Phone  string `gorm:"size:50;not null" json:"phone"`
}

// TableName specifies the table name for the EmergencyContact model
func (EmergencyContact) TableName() string {
	return "emergency_contacts"
}
