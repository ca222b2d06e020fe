package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token format")
	ErrBadSignature = errors.New("invalid signature")
	ErrExpired      = errors.New("session expired")
)

// SessionTTL はセッションの有効期間
const SessionTTL = 12 * time.Hour

// CreateSessionToken は管理者IDと有効期限から署名付きセッショントークンを生成する
func CreateSessionToken(adminID string, expiresAt time.Time, secret []byte) string {
	payload := []byte(adminID + "|" + strconv.FormatInt(expiresAt.Unix(), 10))
	return base64.URLEncoding.EncodeToString(payload) + "." + sign(payload, secret)
}

// ParseSessionToken はトークンの形式と署名を検証し、管理者IDと有効期限を返す。
// 有効期限はチェックしない（期限切れセッションの後始末に使う）
func ParseSessionToken(token string, secret []byte) (string, time.Time, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", time.Time{}, ErrInvalidToken
	}
	payload, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sign(payload, secret)), []byte(parts[1])) {
		return "", time.Time{}, ErrBadSignature
	}

	adminID, exp, ok := strings.Cut(string(payload), "|")
	if !ok || adminID == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	return adminID, time.Unix(unix, 0), nil
}

// VerifySessionToken はトークンを検証し管理者IDと有効期限を返す
func VerifySessionToken(token string, secret []byte, now time.Time) (string, time.Time, error) {
	adminID, expiresAt, err := ParseSessionToken(token, secret)
	if err != nil {
		return "", time.Time{}, err
	}
	if !now.Before(expiresAt) {
		return "", time.Time{}, ErrExpired
	}
	return adminID, expiresAt, nil
}

func sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

const sessionCookieName = "exitravels_session"
const minSecretLen = 32

// SessionCookieName はセッションクッキー名
func SessionCookieName() string {
	return sessionCookieName
}

// SessionSecretBytes は文字列からセッション署名用のバイト列を生成する（最低32バイト）
func SessionSecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) < minSecretLen {
		out := make([]byte, minSecretLen)
		copy(out, b)
		return out
	}
	return b
}
