package service

import (
	"errors"
	"unicode/utf8"

	"github.com/habittrack/internal/db"
)

// DefaultParentPassword 是从未设置口令时的出厂默认值。
const DefaultParentPassword = "1234"

// minPasswordLength 按字符数（而非字节数）计。
const minPasswordLength = 4

var (
	// ErrCurrentPasswordMismatch 在当前口令不匹配时返回
	ErrCurrentPasswordMismatch = errors.New("current password does not match")
	// ErrPasswordTooShort 在新口令长度不足时返回
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	// ErrPasswordConfirmMismatch 在两次输入的新口令不一致时返回
	ErrPasswordConfirmMismatch = errors.New("password confirmation does not match")
)

// PasswordGate 持有家长口令。
// 会话态的认证标记由 HTTP 层的 session 承载，本层只负责凭据本身。
type PasswordGate struct {
	kv db.KV
}

// NewPasswordGate 构造 PasswordGate。
func NewPasswordGate(kv db.KV) *PasswordGate {
	return &PasswordGate{kv: kv}
}

// Current 返回当前存储的口令，未设置时返回默认值。
func (g *PasswordGate) Current() (string, error) {
	value, ok, err := g.kv.Get(db.KeyParentPassword)
	if err != nil {
		return "", err
	}
	if !ok || value == "" {
		return DefaultParentPassword, nil
	}
	return value, nil
}

// Verify 校验输入口令是否与存储值一致。
func (g *PasswordGate) Verify(input string) (bool, error) {
	current, err := g.Current()
	if err != nil {
		return false, err
	}
	return input == current, nil
}

// Change 修改口令。
// 当前口令不匹配、新口令过短或两次输入不一致时均失败且不改动存储值。
func (g *PasswordGate) Change(current, next, confirm string) error {
	stored, err := g.Current()
	if err != nil {
		return err
	}

	if current != stored {
		return ErrCurrentPasswordMismatch
	}
	if utf8.RuneCountInString(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if next != confirm {
		return ErrPasswordConfirmMismatch
	}

	return g.kv.Set(db.KeyParentPassword, next)
}
