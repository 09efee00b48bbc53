package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompilationTarget(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		contract string
		source   string
	}{
		{"object", `{"settings": {"compilationTarget": {"src/Time.sol": "Time"}}}`, "Time", "src/Time.sol"},
		{"encoded string", `"{\"settings\":{\"compilationTarget\":{\"src/A.sol\":\"A\"}}}"`, "A", "src/A.sol"},
		{"empty", ``, "", ""},
		{"garbage", `"not json"`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract, source := compilationTarget([]byte(tt.metadata))
			assert.Equal(t, tt.contract, contract)
			assert.Equal(t, tt.source, source)
		})
	}
}
