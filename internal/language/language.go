package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Original is the sentinel tag reported when a rewrite restored the
// document's pre-translation content instead of applying a translation.
const Original = "original"

// Normalize canonicalizes a BCP 47-ish tag into the "lang" or "lang-REGION"
// form TMDB uses ("zh-cn" -> "zh-CN", "JA" -> "ja"). Returns "" for tags
// that cannot be interpreted as a language at all.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil || parsed == language.Und {
		// TMDB tags are simple; fall back to a manual lang-REGION split
		// for codes the parser does not know.
		code, country := Split(tag)
		if !isAlpha(code) || len(code) < 2 || len(code) > 3 {
			return ""
		}
		return Join(code, country)
	}
	base, confidence := parsed.Base()
	if confidence == language.No {
		return ""
	}
	if region, regionConfidence := parsed.Region(); regionConfidence == language.Exact && region.IsCountry() {
		return base.String() + "-" + region.String()
	}
	return base.String()
}

// Join combines an ISO 639-1 code and an optional ISO 3166-1 country code
// into the tag form used throughout the service.
func Join(code, country string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	country = strings.ToUpper(strings.TrimSpace(country))
	if code == "" {
		return ""
	}
	if country == "" {
		return code
	}
	return code + "-" + country
}

// Split separates a tag into its language and region parts. The region is
// empty for bare-language tags.
func Split(tag string) (string, string) {
	code, country, found := strings.Cut(strings.TrimSpace(tag), "-")
	if !found {
		return code, ""
	}
	return code, country
}

// SameBase reports whether two tags share a base language ("zh-CN" and
// "zh" do; "zh-CN" and "ja" do not).
func SameBase(a, b string) bool {
	baseA, okA := baseOf(a)
	baseB, okB := baseOf(b)
	return okA && okB && baseA == baseB
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

func baseOf(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", false
	}
	parsed, err := language.Parse(tag)
	if err == nil && parsed != language.Und {
		base, confidence := parsed.Base()
		if confidence != language.No {
			return base.String(), true
		}
	}
	// Tags TMDB emits are simple enough to split by hand when the parser
	// refuses them.
	code, _ := Split(tag)
	code = strings.ToLower(code)
	if code == "" {
		return "", false
	}
	return code, true
}
