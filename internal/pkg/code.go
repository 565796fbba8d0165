package pkg

import (
	"crypto/rand"
	"math/big"
)

// RandDigits 生成 n 位数字验证码，逐位取密码学随机数
func RandDigits(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		x, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + x.Int64())
	}
	return string(buf), nil
}
