package mysql

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitDB(dsn string) (*gorm.DB, error) {
	// TranslateError 把驱动的唯一键冲突翻成 gorm.ErrDuplicatedKey
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}
