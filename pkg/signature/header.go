package signature

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme は認証ヘッダのスキームトークン。
const Scheme = "MCP-HMAC-SHA256"

// ヘッダに必須のキー。
const (
	keySystemID  = "SystemID"
	keyUserID    = "UserID"
	keyTimestamp = "Timestamp"
	keySignature = "Signature"
)

// EncodeHeader は署名済みリクエストをAuthorizationヘッダ文字列に変換する。
// 形式: MCP-HMAC-SHA256 SystemID=<id>,UserID=<id>,Timestamp=<ts>,Signature=<hex>
func EncodeHeader(req SignedRequest) string {
	return fmt.Sprintf("%s %s=%s,%s=%s,%s=%d,%s=%s",
		Scheme,
		keySystemID, req.SystemID,
		keyUserID, req.UserID,
		keyTimestamp, req.Timestamp,
		keySignature, req.Signature,
	)
}

// DecodeHeader はAuthorizationヘッダ文字列を解析する。
// スキーム不一致、必須キーの欠落、キーの重複、タイムスタンプの形式不正は
// いずれもErrMalformedHeaderとして扱う。キーの順序には依存しない。
func DecodeHeader(header string) (HeaderFields, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return HeaderFields{}, fmt.Errorf("%w: missing scheme", ErrMalformedHeader)
	}
	if parts[0] != Scheme {
		return HeaderFields{}, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedHeader, parts[0])
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(parts[1], ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			return HeaderFields{}, fmt.Errorf("%w: invalid parameter %q", ErrMalformedHeader, pair)
		}
		if _, dup := params[kv[0]]; dup {
			return HeaderFields{}, fmt.Errorf("%w: duplicate key %q", ErrMalformedHeader, kv[0])
		}
		params[kv[0]] = kv[1]
	}

	for _, key := range []string{keySystemID, keyUserID, keyTimestamp, keySignature} {
		val, ok := params[key]
		if !ok {
			return HeaderFields{}, fmt.Errorf("%w: missing key %q", ErrMalformedHeader, key)
		}
		if val == "" {
			return HeaderFields{}, fmt.Errorf("%w: empty value for key %q", ErrMalformedHeader, key)
		}
	}

	timestamp, err := strconv.ParseInt(params[keyTimestamp], 10, 64)
	if err != nil {
		return HeaderFields{}, fmt.Errorf("%w: invalid timestamp", ErrMalformedHeader)
	}

	return HeaderFields{
		SystemID:  params[keySystemID],
		UserID:    params[keyUserID],
		Timestamp: timestamp,
		Signature: params[keySignature],
	}, nil
}
