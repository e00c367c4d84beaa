package export

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// contactFields are the client module fields tried, in order, for a default recipient.
var contactFields = []string{"contact_email", "email"}

// ResolveRecipients picks who receives an exported report: the explicit list when given,
// else a client contact field holding a valid address, else the organizational fallback.
func ResolveRecipients(explicit []string, client map[string]string, fallback string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range explicit {
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	if len(out) > 0 {
		return out
	}

	if addr := clientContact(client); addr != "" {
		return []string{addr}
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return []string{fallback}
	}
	return nil
}

func clientContact(client map[string]string) string {
	for _, f := range contactFields {
		if v := strings.TrimSpace(client[f]); isEmail(v) {
			return v
		}
	}
	var keys []string
	for k := range client {
		if strings.Contains(k, "email") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := strings.TrimSpace(client[k]); isEmail(v) {
			return v
		}
	}
	return ""
}

func isEmail(s string) bool {
	return s != "" && validate.Var(s, "email") == nil
}
