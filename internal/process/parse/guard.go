package parse

import "strings"

// knownOutlets are news-organization names that occasionally leak out of a
// model response as the "name" of a risk. A citation outlet is never a risk,
// so any match is replaced with a descriptive placeholder.
var knownOutlets = []string{
	"reuters",
	"associated press",
	"ap news",
	"bbc",
	"bbc news",
	"al jazeera",
	"the guardian",
	"guardian",
	"cnn",
	"bloomberg",
	"financial times",
	"the new york times",
	"new york times",
	"the washington post",
	"washington post",
	"the economist",
	"foreign policy",
	"foreign affairs",
	"politico",
	"axios",
	"afp",
	"deutsche welle",
	"france 24",
	"nikkei",
	"south china morning post",
	"the wall street journal",
	"wall street journal",
}

// isOutletName reports whether a risk name is actually a news-outlet name.
func isOutletName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, " news")

	for _, outlet := range knownOutlets {
		if n == outlet || n == strings.TrimSuffix(outlet, " news") {
			return true
		}
	}

	return false
}

// placeholderName builds a replacement name for a risk whose reported name
// failed the outlet guard.
func placeholderName(region string) string {
	region = strings.TrimSpace(region)
	if region != "" {
		return "Geopolitical Tensions in " + region
	}

	return "Geopolitical Risk"
}
