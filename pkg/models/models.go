package models

import (
	"time"
)

type Author struct {
	ID        uint   `gorm:"primaryKey"`
	AuthorUid string `gorm:"type:uuid;uniqueIndex;not null"`
	Name      string `gorm:"size:200;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Book struct {
	ID        uint   `gorm:"primaryKey"`
	BookUid   string `gorm:"type:uuid;uniqueIndex;not null"`
	Title     string `gorm:"size:300;not null"`
	Isbn      string `gorm:"size:20;uniqueIndex;not null"`
	AuthorID  uint   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Author Author `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
}

type Member struct {
	ID        uint   `gorm:"primaryKey"`
	MemberUid string `gorm:"type:uuid;uniqueIndex;not null"`
	FullName  string `gorm:"size:200;not null"`
	Email     string `gorm:"size:320;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Loan is one checkout/return cycle. ReturnedAt == nil marks the loan as
// active; book availability is derived from the absence of such a row,
// never stored on Book itself.
type Loan struct {
	ID         uint   `gorm:"primaryKey"`
	LoanUid    string `gorm:"type:uuid;uniqueIndex;not null"`
	BookID     uint   `gorm:"not null;index"`
	MemberID   uint   `gorm:"not null;index"`
	LoanedAt   time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Book   Book   `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
	Member Member `gorm:"foreignKey:MemberID;constraint:OnDelete:RESTRICT"`
}

type User struct {
	ID           uint   `gorm:"primaryKey"`
	UserUid      string `gorm:"type:uuid;uniqueIndex;not null"`
	Username     string `gorm:"size:80;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:40;not null;default:'User'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
