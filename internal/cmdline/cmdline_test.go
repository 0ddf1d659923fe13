package cmdline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"-k runservice", []string{"-k", "runservice"}},
		{`--defaults-file="D:\my dir\my.ini" anchormysql`, []string{`--defaults-file=D:\my dir\my.ini`, "anchormysql"}},
		{`runservice -N "anchorpostgresql" -D "E:\pg\data" -w`, []string{"runservice", "-N", "anchorpostgresql", "-D", `E:\pg\data`, "-w"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{`""`, []string{""}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Split(tt.in), "Split(%q)", tt.in)
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `C:\anchor\httpd.exe`, Quote(`C:\anchor\httpd.exe`))
	assert.Equal(t, `"C:\my anchor\httpd.exe"`, Quote(`C:\my anchor\httpd.exe`))
	assert.Equal(t, `""`, Quote(""))

	assert.Equal(t, `"C:\my anchor\httpd.exe" -k runservice`, Join(`C:\my anchor\httpd.exe`, " -k runservice "))
	assert.Equal(t, `/opt/anchor/mailpit`, Join("/opt/anchor/mailpit", ""))
}
