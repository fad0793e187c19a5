package slug

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	folder   = strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
		"ç", "c", "è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
		"ñ", "n", "ò", "o", "ó", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u", "ğ", "g", "ş", "s",
		"&", " and ", "'", "",
	)
)

// Generate returns a lowercase, hyphen-separated URL slug for name:
//
//	"Wes's Café & Bar" -> "wess-cafe-and-bar"
func Generate(name string) string {
	s := folder.Replace(strings.ToLower(strings.TrimSpace(name)))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}

// Unique returns base when unused, otherwise base-N where N is one more
// than the number of existing slugs of the form base or base-<digits>.
func Unique(base string, existing []string) string {
	n := 0
	for _, s := range existing {
		if s == base {
			n++
			continue
		}
		if rest, ok := strings.CutPrefix(s, base+"-"); ok {
			if _, err := strconv.Atoi(rest); err == nil {
				n++
			}
		}
	}
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n+1)
}
