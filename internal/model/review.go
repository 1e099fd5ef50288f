package model

import "time"

// Review 作品评价，每个用户对同一作品只能评价一次
type Review struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	TitleID  int       `json:"-" gorm:"not null;uniqueIndex:idx_review_author_title,priority:2;index"`
	Title    *Title    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID int       `json:"-" gorm:"not null;uniqueIndex:idx_review_author_title,priority:1"`
	Author   *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Score    int       `json:"score" gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}

// Comment 评价下的评论
type Comment struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	ReviewID int       `json:"-" gorm:"not null;index"`
	Review   *Review   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID int       `json:"-" gorm:"not null;index"`
	Author   *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}

// OwnerID 评价作者
func (r *Review) OwnerID() int {
	return r.AuthorID
}

// OwnerID 评论作者
func (c *Comment) OwnerID() int {
	return c.AuthorID
}
