package models

// All returns every model managed by AutoMigrate, parents first
func All() []interface{} {
	return []interface{}{&User{}, &EmergencyContact{}, &Report{}}
}
