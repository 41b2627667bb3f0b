package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcInstParam(t *testing.T) {
	tests := []struct {
		inst string
		want string
	}{
		{inst: `version="7.0"`, want: "7.0"},
		{inst: ` version = '13.0' `, want: "13.0"},
		{inst: `stylesheet="a" version="2.0"`, want: "2.0"},
		{inst: `version`, want: ""},
		{inst: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.inst, func(t *testing.T) {
			assert.Equal(t, tt.want, procInstParam(tt.inst, "version"))
		})
	}
}
