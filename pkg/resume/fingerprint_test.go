package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a, b Element
		same bool
	}{
		{
			name: "explicit id wins",
			a:    Element{Tag: "button", Attrs: map[string]string{"data-rid": "save", "data-x": "1"}},
			b:    Element{Tag: "a", Attrs: map[string]string{"data-rid": "save"}},
			same: true,
		},
		{
			name: "non data attributes ignored",
			a:    Element{Tag: "span", Attrs: map[string]string{"data-bind": "n", "class": "a"}},
			b:    Element{Tag: "span", Attrs: map[string]string{"data-bind": "n", "style": "color: red"}},
			same: true,
		},
		{
			name: "case insensitive tag and keys",
			a:    Element{Tag: "DIV", Attrs: map[string]string{"DATA-Role": "panel"}},
			b:    Element{Tag: "div", Attrs: map[string]string{"data-role": "panel"}},
			same: true,
		},
		{
			name: "different tag",
			a:    Element{Tag: "span", Attrs: map[string]string{"data-bind": "n"}},
			b:    Element{Tag: "div", Attrs: map[string]string{"data-bind": "n"}},
		},
		{
			name: "different value",
			a:    Element{Tag: "span", Attrs: map[string]string{"data-bind": "n"}},
			b:    Element{Tag: "span", Attrs: map[string]string{"data-bind": "m"}},
		},
		{
			name: "key value boundary",
			a:    Element{Tag: "i", Attrs: map[string]string{"data-a": "b=c"}},
			b:    Element{Tag: "i", Attrs: map[string]string{"data-a": "b", "data-c": ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa, fb := Fingerprint(tt.a), Fingerprint(tt.b)
			if tt.same {
				assert.Equal(t, fa, fb)
			} else {
				assert.NotEqual(t, fa, fb)
			}
		})
	}
}

func TestFingerprintStable(t *testing.T) {
	el := Element{Tag: "li", Attrs: map[string]string{"data-key": "7", "data-list": "todos"}}
	first := Fingerprint(el)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Fingerprint(el))
	}
	assert.Regexp(t, `^n[0-9a-f]+$`, first)
	assert.Equal(t, "n", Fingerprint(Element{Tag: "p"})[:1])
}
