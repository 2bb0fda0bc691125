package core

import (
	"strings"
	"unicode/utf8"

	"traddy-backend-go/internal/models"
)

const (
	maskRune    = "•"
	missingMark = "-"
)

// MaskValue hides v behind one placeholder per rune, or the missing mark when nil.
func MaskValue(v *string) *string {
	var out string
	if v == nil {
		out = missingMark
	} else {
		out = strings.Repeat(maskRune, utf8.RuneCountInString(*v))
	}
	return &out
}

// redactFor returns a copy of lead with contact fields hidden unless viewerID
// is the seller or the buyer.
func redactFor(lead *models.Lead, viewerID string) *models.Lead {
	if viewerID != "" && (lead.UserID == viewerID || lead.BuyerID == viewerID) {
		return lead
	}
	out := *lead
	out.ContactName = MaskValue(lead.ContactName)
	out.Email = MaskValue(lead.Email)
	out.Phone = MaskValue(lead.Phone)
	out.Masked = true
	return &out
}
