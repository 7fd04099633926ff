package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/diff"
)

func TestUnified(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   string
	}{
		{
			name:   "equal",
			before: "div {\n}\n",
			after:  "div {\n}\n",
			want:   "",
		},
		{
			name:   "reindented line",
			before: "div {\nx;\n}\n",
			after:  "div {\n    x;\n}\n",
			want: "--- a.chtl\n" +
				"+++ a.chtl (formatted)\n" +
				"@@ -1,4 +1,4 @@\n" +
				" div {\n" +
				"-x;\n" +
				"+    x;\n" +
				" }\n" +
				" \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := diff.Unified("a.chtl", tt.before, tt.after)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
