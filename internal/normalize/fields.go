package normalize

import (
	"sort"

	"ganeo/internal/gtag"
)

// renames maps legacy field names to their gtag parameter names. Keys that
// are not listed pass through unchanged.
var renames = map[string]string{
	"cookieDomain":  "cookie_domain",
	"cookieExpires": "cookie_expires",
	"cookieUpdate":  "cookie_update",
	"cookieFlags":   "cookie_flags",
	"cookiePrefix":  "cookie_prefix",
	"userId":        "user_id",
	"clientId":      "client_id",
	"anonymizeIp":   "anonymize_ip",

	"contentGroup1": "content_group1",
	"contentGroup2": "content_group2",
	"contentGroup3": "content_group3",
	"contentGroup4": "content_group4",
	"contentGroup5": "content_group5",

	"allowAdFeatures":               "allow_google_signals",
	"allowAdPersonalizationSignals": "allow_ad_personalization_signals",

	"nonInteraction": "non_interaction",
	"page":           "page_path",
	"hitCallback":    "event_callback",
	"category":       "event_category",
	"label":          "event_label",
}

// FieldName returns the gtag name for a legacy field.
func FieldName(legacy string) string {
	if name, ok := renames[legacy]; ok {
		return name
	}
	return legacy
}

// Rename returns a copy of f with every key translated by FieldName.
// A nil map stays nil.
func Rename(f gtag.Fields) gtag.Fields {
	if f == nil {
		return nil
	}
	out := make(gtag.Fields, len(f))
	for k, v := range f {
		out[FieldName(k)] = v
	}
	return out
}

// RenamePair is one row of the rename table.
type RenamePair struct {
	Legacy string
	Gtag   string
}

// RenameTable lists the rename table sorted by legacy name.
func RenameTable() []RenamePair {
	pairs := make([]RenamePair, 0, len(renames))
	for legacy, name := range renames {
		pairs = append(pairs, RenamePair{Legacy: legacy, Gtag: name})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Legacy < pairs[j].Legacy
	})
	return pairs
}

// ConfigOptions builds the options object of a ("config", id, options)
// call. Legacy gaOptions are merged (tracker values win) and renamed, then
// gtagOptions are laid over verbatim. Returns nil when nothing is set.
func ConfigOptions(gaOptions, trackerGAOptions, gtagOptions, trackerGtagOptions gtag.Fields) gtag.Fields {
	merged := gtag.Fields{}
	for k, v := range gaOptions {
		merged[k] = v
	}
	for k, v := range trackerGAOptions {
		merged[k] = v
	}
	out := Rename(merged)
	for k, v := range gtagOptions {
		out[k] = v
	}
	for k, v := range trackerGtagOptions {
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
