package auth

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrUserNotFound 查無使用者。
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists email 或 username 已被使用。
	ErrUserExists = errors.New("user already exists")
)

// Role 定義系統角色。
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleManager       Role = "manager"
	RoleAuthenticated Role = "authenticated"
)

// User 帳號資料，Password 為 bcrypt 雜湊。
type User struct {
	ID                 string
	Username           string
	Email              string
	FirstName          string
	LastName           string
	Password           string
	ResetPasswordToken string
	Blocked            bool
	Confirmed          bool
	Role               Role
	CreatedAt          time.Time
}

// Validate 基本欄位檢查。
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// CanLogin 未封鎖且已確認的帳號才能登入或換發 token。
func (u User) CanLogin() bool {
	return !u.Blocked && u.Confirmed
}

// Matches 以 email 或 username（不分大小寫）比對登入識別碼。
func (u User) Matches(identifier string) bool {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" {
		return false
	}
	return strings.ToLower(u.Email) == id || strings.ToLower(u.Username) == id
}

// DisplayName 寄信時使用的稱呼。
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Profile 對外輸出的帳號資料，不含密碼與重設 token。
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Blocked   bool      `json:"blocked"`
	Confirmed bool      `json:"confirmed"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile 移除敏感欄位。
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Blocked:   u.Blocked,
		Confirmed: u.Confirmed,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
