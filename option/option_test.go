package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Set
	}{
		{
			name: "empty",
			args: nil,
			want: 0,
		},
		{
			name: "short",
			args: []string{"-r", "-p"},
			want: Of(Recursive, Parallel),
		},
		{
			name: "collapsed",
			args: []string{"-rp"},
			want: Of(Recursive, Parallel),
		},
		{
			name: "long",
			args: []string{"--test", "--generate"},
			want: Of(Test, Generate),
		},
		{
			name: "repeated",
			args: []string{"-r", "--recursive", "-rr"},
			want: Of(Recursive),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.args)
			assert.NoErrorf(t, err, "Decode(%v) error = %v", tt.args, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Illegal(t *testing.T) {
	for _, args := range [][]string{{"-x"}, {"-rx"}, {"--recursiv"}, {"--r"}} {
		_, err := Decode(args)

		var ie *IllegalOptionError
		assert.ErrorAsf(t, err, &ie, "Decode(%v) should return IllegalOptionError", args)
	}
}

func TestExplode(t *testing.T) {
	assert.Equal(t, []string{"-r", "-p"}, Explode("-rp"))
	assert.Equal(t, []string{"--parallel"}, Explode("--parallel"))
	assert.Equal(t, []string{"-"}, Explode("-"))
}

func TestSet(t *testing.T) {
	s := Of(Parallel, Generate)
	assert.True(t, s.Has(Parallel))
	assert.True(t, s.Has(Generate))
	assert.False(t, s.Has(Recursive))
	assert.False(t, s.Has(Test))
	assert.Equal(t, "[PARALLEL GENERATE]", s.String())
	assert.Equal(t, "[]", Set(0).String())
	assert.Equal(t, Of(Parallel, Generate, Test), s.Union(Of(Test)))
}

func TestSyntax(t *testing.T) {
	assert.Equal(t, "[-p|--parallel] [-r|--recursive] [-t|--test] [-g|--generate]", Syntax())
}
