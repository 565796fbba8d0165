package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	EmailCodePrefix     = "email:code:"
	EmailRegisterPrefix = EmailCodePrefix + "register"
	CodeResetPrefix     = EmailCodePrefix + "reset"

	// 两阶段键
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailAddFailed      = errors.New("email add failed")
	ErrEmailNotFound       = errors.New("email not found")
	ErrEmailCodeDelFailed  = errors.New("email code delete failed")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
)

type EmailRepository struct{}

// 将 pending 转为 confirmed 的 lua：取值+写入目标+设置 TTL+删除源，原子执行
const promoteScript = `
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`

func pendingKey(prefix, email string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, PendingSuffix, email)
}

func confirmedKey(prefix, email string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, ConfirmedSuffix, email)
}

func scopePrefix(scope string) string {
	if scope == "register" {
		return EmailRegisterPrefix
	}
	return CodeResetPrefix
}

// SetCodePending 写入验证码 pending 键
func (e *EmailRepository) SetCodePending(scope, email, code string) error {
	if err := Client.Set(context.Background(), pendingKey(scopePrefix(scope), email), code, DefaultEmailCodeTTL).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

// PromoteCode 邮件发送成功后把 pending 提升为 confirmed
func (e *EmailRepository) PromoteCode(scope, email string) error {
	prefix := scopePrefix(scope)
	px := int64(DefaultEmailCodeTTL / time.Millisecond)
	res := Client.Eval(context.Background(), promoteScript,
		[]string{pendingKey(prefix, email), confirmedKey(prefix, email)}, px)
	if err := res.Err(); err != nil {
		return ErrCodeConfirmedFailed
	}
	ok, _ := res.Int()
	if ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

// DeleteCodePending 删除 pending 键（幂等）
func (e *EmailRepository) DeleteCodePending(scope, email string) error {
	if err := Client.Del(context.Background(), pendingKey(scopePrefix(scope), email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}

// GetCodeConfirmed 校验时读 confirmed 键
func (e *EmailRepository) GetCodeConfirmed(scope, email string) (string, error) {
	val, err := Client.Get(context.Background(), confirmedKey(scopePrefix(scope), email)).Result()
	if err != nil {
		return "", ErrEmailNotFound
	}
	return val, nil
}

// DeleteCodeConfirmed 校验通过后删除，验证码一次性使用
func (e *EmailRepository) DeleteCodeConfirmed(scope, email string) error {
	if err := Client.Del(context.Background(), confirmedKey(scopePrefix(scope), email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}
