package reconcile

import (
	"strings"

	"github.com/marketsync/backend/internal/domain/catalog"
)

// legacyTerabyteToken appears in ERP names for 1TB phones but never in the
// reference catalog's model column, so the normalizer strips it alongside
// the declared memory.
const legacyTerabyteToken = "1 тб"

// Normalize extracts per-attribute search keys from a raw display name.
// It is a pure function: running it twice on the same record yields the
// same keys. Removals of tokens the name does not contain silently no-op.
func Normalize(rec InventoryRecord) SearchKey {
	name := catalog.Fold(rec.DisplayName)

	// The last whitespace-delimited token of the full name is the tentative
	// color. Names end with the color by ERP convention.
	colorCandidate := lastToken(name)

	// Anything from the first '(' onward carries SKU/region codes that are
	// irrelevant to model identification.
	working := name
	if i := strings.IndexByte(working, '('); i >= 0 {
		working = working[:i]
	}
	working = strings.TrimSpace(working)

	for _, tok := range []string{
		catalog.Fold(rec.Brand),
		catalog.Fold(rec.DeclaredMemory),
		catalog.Fold(rec.DeclaredRAM),
		legacyTerabyteToken,
		colorCandidate,
	} {
		if tok == "" {
			continue
		}
		working = strings.ReplaceAll(working, tok, "")
	}
	working = collapseSpaces(working)

	// Samsung model names carry a redundant line prefix ("galaxy a55 ..."),
	// so everything up to and including the first space is dropped.
	if catalog.Fold(rec.Brand) == BrandSamsung {
		if i := strings.IndexByte(working, ' '); i >= 0 {
			working = working[i+1:]
		}
	}

	return SearchKey{
		NameModel:      working,
		ColorCandidate: colorCandidate,
	}
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
