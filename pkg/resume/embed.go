package resume

import (
	"bytes"
	"encoding/json"
)

// ScriptID is the id of the script element that carries the snapshot.
const ScriptID = "__RESUME_STATE__"

// EmbedInHTML returns the script element carrying snap. The payload has
// '<', '>' and '&' rewritten as \u003c, \u003e and \u0026 so that no part of
// it can close the script element or be read as markup.
func (s *Serializer) EmbedInHTML(snap *Snapshot) (string, error) {
	return EmbedInHTML(snap)
}

// EmbedInHTML is the Serializer-independent form of Serializer.EmbedInHTML.
func EmbedInHTML(snap *Snapshot) (string, error) {
	data, err := snap.Encode()
	if err != nil {
		return "", err
	}
	return EmbedPayload(data), nil
}

// EmbedPayload wraps an already encoded snapshot payload.
func EmbedPayload(data []byte) string {
	var b bytes.Buffer
	b.Grow(len(data) + 64)
	b.WriteString(`<script type="application/json" id="`)
	b.WriteString(ScriptID)
	b.WriteString(`">`)
	json.HTMLEscape(&b, data)
	b.WriteString(`</script>`)
	return b.String()
}
