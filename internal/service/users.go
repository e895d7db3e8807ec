package service

// User 描述一个固定的儿童用户。
// 用户集合是封闭的预定义列表，不支持运行时创建。
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Users 按声明顺序排列，该顺序同时决定 CSV 导出的行顺序。
var Users = []User{
	{ID: "sua", Name: "수아"},
	{ID: "han", Name: "한"},
}

// FindUser 根据用户 ID 查找用户。
func FindUser(id string) (User, bool) {
	for _, user := range Users {
		if user.ID == id {
			return user, true
		}
	}
	return User{}, false
}

// FindUserByName 根据显示名查找用户，CSV 导入按显示名解析用户列。
func FindUserByName(name string) (User, bool) {
	for _, user := range Users {
		if user.Name == name {
			return user, true
		}
	}
	return User{}, false
}
