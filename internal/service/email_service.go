package service

import (
	"subgreddiit/internal/pkg"
	"subgreddiit/internal/repository/redis"
)

type EmailService struct {
	emailCfg pkg.SMTPConfig
	rds      *redis.EmailRepository
}

func NewEmailService(cfg pkg.SMTPConfig) *EmailService {
	return &EmailService{emailCfg: cfg, rds: &redis.EmailRepository{}}
}

var codeSubjects = map[string]string{
	"register": "注册验证",
	"reset":    "重置密码",
}

// SendCode 发送验证码：先写 pending 键，邮件成功后提升为 confirmed，
// 发送失败删 pending 回滚
func (s *EmailService) SendCode(scope, email string) error {
	code, err := pkg.RandDigits(6)
	if err != nil {
		return err
	}
	if err = s.rds.SetCodePending(scope, email, code); err != nil {
		return err
	}

	html := pkg.EmailCodeHTML(codeSubjects[scope], code, redis.DefaultEmailCodeTTL)
	if err = pkg.SendEmail(s.emailCfg, email, codeSubjects[scope]+"验证码", html); err != nil {
		_ = s.rds.DeleteCodePending(scope, email)
		return err
	}

	if err = s.rds.PromoteCode(scope, email); err != nil {
		_ = s.rds.DeleteCodePending(scope, email)
		return err
	}
	return nil
}

// VerifyCode 校验验证码，匹配即删除，一次性使用
func (s *EmailService) VerifyCode(scope, email, code string) (bool, error) {
	stored, err := s.rds.GetCodeConfirmed(scope, email)
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	_ = s.rds.DeleteCodeConfirmed(scope, email)
	return true, nil
}
