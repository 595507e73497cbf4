package entity

import "time"

// User 用户（由外部通讯录同步，本服务只读）
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Username   string    `json:"username" gorm:"size:100;uniqueIndex"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	Email      string    `json:"email" gorm:"size:200"`
	Department string    `json:"department" gorm:"size:100"`
	Position   string    `json:"position" gorm:"size:100"`
	Status     string    `json:"status" gorm:"size:20;default:'active'"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
