package email

import (
	"net/mail"
	"strings"
)

// joinAddresses comma-joins the bare email addresses from addrs,
// dropping any entry with an empty address the way _format_email_field
// does for string/dict/list header values.
func joinAddresses(addrs []mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Address == "" {
			continue
		}
		parts = append(parts, a.Address)
	}
	return strings.Join(parts, ", ")
}

// firstAddress returns the first non-empty address in addrs, the
// canonical address recorded in email_from/email_to metadata.
func firstAddress(addrs []mail.Address) (string, bool) {
	for _, a := range addrs {
		if a.Address != "" {
			return a.Address, true
		}
	}
	return "", false
}
