package model

// Taxon 分类与类型共用的字段
type Taxon struct {
	ID   int    `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

// Base 返回内嵌的 Taxon，供泛型仓库访问公共字段
func (t *Taxon) Base() *Taxon {
	return t
}

// Category 作品分类
type Category struct {
	Taxon
}

// Genre 作品类型
type Genre struct {
	Taxon
}

// Title 作品
type Title struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	Description *string   `json:"description" gorm:"type:text"`
	CategoryID  *int      `json:"-" gorm:"index"`
	Category    *Category `json:"category" gorm:"constraint:OnDelete:SET NULL"`
	Genres      []Genre   `json:"genre" gorm:"many2many:genre_titles;constraint:OnDelete:CASCADE"`
}

// GenreTitle 作品与类型的关联表
type GenreTitle struct {
	TitleID int `gorm:"primaryKey"`
	GenreID int `gorm:"primaryKey"`
}

func (GenreTitle) TableName() string {
	return "genre_titles"
}
