package models

type User struct {
	BaseModel

	Name         string  `gorm:"not null"`
	Email        string  `gorm:"uniqueIndex;not null"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         string  `gorm:"not null;default:employee"` // "manager" or "employee"
	Avatar       string
	TeamID       *string `gorm:"type:uuid;index"`
	IsActive     bool    `gorm:"default:true"`

	// Relationships
	Team          *Team          `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Notifications []Notification `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
