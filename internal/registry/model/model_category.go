package model

// Category 市场分类
type Category struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// Categories 固定分类表，顺序即市场展示顺序
var Categories = []Category{
	{Id: "productivity", Name: "Productivity"},
	{Id: "utilities", Name: "Utilities"},
	{Id: "development", Name: "Development"},
	{Id: "writing", Name: "Writing"},
	{Id: "creativity", Name: "Creativity"},
	{Id: "ai", Name: "AI"},
	{Id: "automation", Name: "Automation"},
	{Id: "communication", Name: "Communication"},
	{Id: "analytics", Name: "Analytics"},
	{Id: "design", Name: "Design"},
	{Id: "education", Name: "Education"},
	{Id: "finance", Name: "Finance"},
}

func IsCategoryId(id string) bool {
	for _, c := range Categories {
		if c.Id == id {
			return true
		}
	}
	return false
}
