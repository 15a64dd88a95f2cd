// Package model 包含了应用的数据模型定义。
package model

import "time"

// 用户角色。角色在创建后不可变更。
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// User 对应于数据库中的 users 表。
type User struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	// Password 存储 bcrypt 哈希，永远不会出现在 JSON 输出中。
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	FirstName string    `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName  string    `gorm:"type:varchar(100);not null" json:"lastName"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// FullName 返回用于展示的完整姓名。
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
