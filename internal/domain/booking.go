package domain

import "strings"

// Booking is a client's claim on one slot. The JSON tags are the durable
// storage contract; changing them changes the on-disk document format.
type Booking struct {
	ID           string `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	Remark       string `json:"remark" bson:"remark"`
	StartISO     string `json:"startISO" bson:"startISO"`
	EndISO       string `json:"endISO" bson:"endISO"`
	CreatedAtISO string `json:"createdAtISO" bson:"createdAtISO"`
	Code         string `json:"code" bson:"code"`
}

// MaxRemarkLength bounds the free-text remark a client may attach.
const MaxRemarkLength = 200

// TruncateRunes cuts s to at most max characters. Both bounded fields
// count characters, not bytes, so slicing the string directly would
// split multibyte input mid-rune.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// NormalizeCode canonicalizes a booking code for comparison. Codes are
// stored upper-case but clients may type them in any case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
