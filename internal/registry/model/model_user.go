package model

// User 用户表
type User struct {
	BaseModel
	Username string `gorm:"column:username;uniqueIndex;size:64" json:"username"`
	Nickname string `gorm:"column:nickname" json:"nickname"`
	Password string `gorm:"column:password" json:"-"` // bcrypt hash
	Email    string `gorm:"column:email" json:"email"`
	Avatar   string `gorm:"column:avatar" json:"avatar"`
	IsAdmin  bool   `gorm:"column:is_admin" json:"isAdmin"`
}

func (User) TableName() string {
	return "t_user"
}

// OrganizationMember 组织成员表
type OrganizationMember struct {
	BaseModel
	OrgId  string `gorm:"column:org_id;index;uniqueIndex:uk_org_user,priority:1" json:"orgId"`
	UserId string `gorm:"column:user_id;index;uniqueIndex:uk_org_user,priority:2" json:"userId"`
	Role   string `gorm:"column:role" json:"role"`
}

func (OrganizationMember) TableName() string {
	return "t_organization_member"
}

// LoginReq 登录请求
type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
