// Package signature はHMAC-SHA256によるリクエスト署名の生成と検証を提供する。
//
// 署名対象文字列は system_id ++ user_id ++ timestamp ++ body_hash の連結であり、
// body_hash はリクエストボディのSHA-256（16進小文字）である。ボディそのものでは
// なくハッシュを署名対象に含めることで、ペイロードサイズによらず署名対象長を
// 一定に保ちつつ、署名をボディのバイト列に束縛する。
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

var (
	// ErrInvalidSignature は署名が一致しない場合のエラー。
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrExpiredTimestamp はタイムスタンプが許容範囲外の場合のエラー。
	ErrExpiredTimestamp = errors.New("expired timestamp")

	// ErrMalformedHeader は認証ヘッダの形式が不正な場合のエラー。
	ErrMalformedHeader = errors.New("malformed authorization header")
)

// SignedRequest は署名済みリクエストの全フィールドを表す。
type SignedRequest struct {
	SystemID    string
	UserID      string
	Timestamp   int64  // Unix秒
	BodyHash    string // SHA-256（16進小文字）
	Signature   string // HMAC-SHA256（16進小文字）
	SignContent string // 署名対象文字列
}

// HeaderFields は認証ヘッダから取り出したフィールドを表す。
// BodyHashとSignContentはヘッダに含まれず、検証側がボディから再計算する。
type HeaderFields struct {
	SystemID  string
	UserID    string
	Timestamp int64
	Signature string
}

// Sign はリクエストボディと共有秘密鍵から署名済みリクエストを生成する。
// 同じ入力と秘密鍵に対して署名は決定的である。
func Sign(systemID, userID string, body []byte, secret string, timestamp int64) SignedRequest {
	bodyHash := hashBody(body)
	signContent := systemID + userID + strconv.FormatInt(timestamp, 10) + bodyHash

	return SignedRequest{
		SystemID:    systemID,
		UserID:      userID,
		Timestamp:   timestamp,
		BodyHash:    bodyHash,
		Signature:   computeHMAC(secret, signContent),
		SignContent: signContent,
	}
}

// Verify は受信したボディのバイト列からハッシュと署名を独立に再計算し、
// ヘッダの署名と定数時間で比較する。タイムスタンプがmaxSkewを超えて
// ずれている場合はErrExpiredTimestamp、署名不一致はErrInvalidSignatureを返す。
func Verify(fields HeaderFields, body []byte, secret string, maxSkew time.Duration, now time.Time) error {
	skew := now.Unix() - fields.Timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(maxSkew.Seconds()) {
		return ErrExpiredTimestamp
	}

	expected := Sign(fields.SystemID, fields.UserID, body, secret, fields.Timestamp)
	if !hmac.Equal([]byte(fields.Signature), []byte(expected.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// hashBody はボディのSHA-256を16進小文字で返す。
func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// computeHMAC はHMAC-SHA256署名を16進小文字で返す。
func computeHMAC(secret, message string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
