package resume

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RIDAttr is the attribute renderers use to give an element an explicit,
// stable resumability id.
const RIDAttr = "data-rid"

// Element is the identifying part of a DOM element: its tag name and
// attributes. Only data-* attributes take part in fingerprinting.
type Element struct {
	Tag   string
	Attrs map[string]string
}

// StableAttrs returns the data-* attributes of e.
func (e Element) StableAttrs() map[string]string {
	out := make(map[string]string)
	for k, v := range e.Attrs {
		if strings.HasPrefix(strings.ToLower(k), "data-") {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

// Fingerprint returns the node id for e. An explicit data-rid wins;
// otherwise the id is derived from the lower-cased tag and the sorted data-*
// attributes. The producing and consuming hosts both use this function, so
// ids match whenever the markup carries the same tag and data attributes.
func Fingerprint(e Element) string {
	attrs := e.StableAttrs()
	if rid := attrs[RIDAttr]; rid != "" {
		return rid
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := xxhash.New()
	_, _ = h.WriteString(strings.ToLower(e.Tag))
	for _, k := range keys {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(attrs[k])
	}
	return "n" + strconv.FormatUint(h.Sum64(), 16)
}
