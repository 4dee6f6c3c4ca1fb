package models

import (
	"time"

	"gorm.io/gorm"
)

// AgeGroupAll 适用于所有年龄段
const AgeGroupAll = "all"

// EducationalContent 理财教育内容（全局目录）
type EducationalContent struct {
	ID            string `json:"id" gorm:"primaryKey;size:36"`
	Title         string `json:"title" gorm:"size:255;not null"`
	Description   string `json:"description" gorm:"type:text"`
	Content       string `json:"content" gorm:"type:text;not null"`
	Type          string `json:"type" gorm:"size:20;not null;index"` // lesson | game | quiz
	Category      string `json:"category" gorm:"size:100"`
	AgeGroup      string `json:"ageGroup" gorm:"size:20;index"` // children | teens | adults | all
	Duration      int    `json:"duration"`                       // 分钟
	Difficulty    string `json:"difficulty" gorm:"size:20"`
	Icon          string `json:"icon" gorm:"size:50"`
	IsAIGenerated bool   `json:"isAIGenerated" gorm:"column:is_ai_generated;not null"`
}

func (EducationalContent) TableName() string {
	return "educational_content"
}

func (c *EducationalContent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ContentFilter 内容筛选，空字段不筛选
type ContentFilter struct {
	Type     string
	AgeGroup string
}

// Matches 存储的 ageGroup 为 all 时匹配任意 ageGroup 筛选
func (f ContentFilter) Matches(c EducationalContent) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.AgeGroup != "" && c.AgeGroup != f.AgeGroup && c.AgeGroup != AgeGroupAll {
		return false
	}
	return true
}

// LearningProgress 成员学习进度，(memberId, contentId) 唯一
type LearningProgress struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	MemberID     string    `json:"memberId" gorm:"size:36;not null;uniqueIndex:idx_member_content"`
	ContentID    string    `json:"contentId" gorm:"size:36;not null;uniqueIndex:idx_member_content"`
	Progress     int       `json:"progress" gorm:"not null"` // 0-100
	Completed    bool      `json:"completed" gorm:"not null"`
	LastAccessed time.Time `json:"lastAccessed"`
}

func (LearningProgress) TableName() string {
	return "learning_progress"
}

func (p *LearningProgress) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
