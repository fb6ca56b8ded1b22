package favorites

import "time"

// Favorite is one entry of the favorite ledger: a bare (article, user)
// relation. The composite primary key enforces at most one entry per pair;
// the aggregate count for an article is the cardinality of its entries.
type Favorite struct {
	ArticleID string    `gorm:"column:article_id;primaryKey;size:36;not null;index"`
	UserID    string    `gorm:"column:user_id;primaryKey;size:36;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Favorite) TableName() string {
	return "favorites"
}
