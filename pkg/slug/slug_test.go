package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := map[string]string{
		"Wes's Café & Bar":      "wess-cafe-and-bar",
		"  Hello   World!  ":    "hello-world",
		"Tim Hortons #42":       "tim-hortons-42",
		"Crème Brûlée Express":  "creme-brulee-express",
		"---":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Generate(in), in)
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, "cafe", Unique("cafe", nil))
	assert.Equal(t, "cafe-2", Unique("cafe", []string{"cafe"}))
	assert.Equal(t, "cafe-3", Unique("cafe", []string{"cafe", "cafe-2"}))
	assert.Equal(t, "cafe", Unique("cafe", []string{"cafe-bar", "cafeteria"}))
}
