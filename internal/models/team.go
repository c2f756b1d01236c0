package models

type Team struct {
	BaseModel

	Name        string `gorm:"not null"`
	Description string
	Color       string `gorm:"default:#6366f1"`
	ManagerID   string `gorm:"type:uuid;not null;index"`

	// Relationships
	Manager  User      `gorm:"foreignKey:ManagerID"`
	Members  []User    `gorm:"foreignKey:TeamID"`
	Projects []Project `gorm:"foreignKey:TeamID"`
}
