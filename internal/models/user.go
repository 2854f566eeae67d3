package models

// UserName 用户姓名
type UserName struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// User 远端用户记录（登录成功后抓取）
type User struct {
	ID       uint     `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Name     UserName `json:"name"`
	Phone    string   `json:"phone"`
}
