package models

// Category is an expense category. The name doubles as the display label and
// must be unique per user, compared case-insensitively.
//
// Default categories are seeded once per user and are immutable: they can
// neither be renamed nor deleted. User-added categories have no such
// restriction.
type Category struct {
	Base
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string `gorm:"not null" json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
}

// DefaultCategories is the fixed set seeded for every user.
var DefaultCategories = []Category{
	{Name: "Food", Icon: "restaurant", Color: "#FF7043", IsDefault: true},
	{Name: "Travel", Icon: "flight", Color: "#42A5F5", IsDefault: true},
	{Name: "Study", Icon: "school", Color: "#AB47BC", IsDefault: true},
	{Name: "Rent", Icon: "home", Color: "#26A69A", IsDefault: true},
	{Name: "Entertainment", Icon: "movie", Color: "#EC407A", IsDefault: true},
	{Name: "Health", Icon: "healing", Color: "#66BB6A", IsDefault: true},
	{Name: "Salary", Icon: "payments", Color: "#FFA726", IsDefault: true},
	{Name: "Other", Icon: "category", Color: "#8D6E63", IsDefault: true},
}
