package bot

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// encodeStartPayload packs a company id into a /start deep-link payload.
// Telegram restricts payloads to A-Za-z0-9_- so the id travels base64url
// encoded.
func encodeStartPayload(companyID uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(companyID), 10)))
}

// decodeStartPayload recovers the company id from a /start payload.
func decodeStartPayload(payload string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return 0, fmt.Errorf("malformed start payload: %w", err)
	}
	id, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed start payload: %w", err)
	}
	return uint(id), nil
}

// startLink builds the t.me deep link that reactivates a company assistant.
func startLink(botUserName string, companyID uint) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUserName, encodeStartPayload(companyID))
}
