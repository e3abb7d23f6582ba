package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDocumentNumber は PREFIX-yyyyMMdd-XXXXXXXX 形式の番号を採番します
// 末尾はUUIDの先頭8文字を大文字にしたものです
func NewDocumentNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + "-" + at.UTC().Format("20060102") + "-" + suffix
}
