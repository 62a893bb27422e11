package page

import (
	"testing"

	"github.com/matryer/is"
)

func TestPageInit(t *testing.T) {
	is := is.New(t)
	p := make(Page, 256)
	is.True(p.IsNew())
	p[100] = 7
	p.Init()
	is.True(!p.IsNew())
	is.Equal(p.Lower(), uint16(HeaderSize))
	is.Equal(p.LSN(), uint64(0))
	is.Equal(p[100], byte(0))
}

func TestPageHeader(t *testing.T) {
	is := is.New(t)
	p := make(Page, 256)
	p.Init()
	p.SetLSN(0x0102030405060708)
	p.SetLower(200)
	is.Equal(p.LSN(), uint64(0x0102030405060708))
	is.Equal(p.Lower(), uint16(200))
	is.Equal(p[0], byte(0x08))
	is.Equal(p[12], byte(200))
}

func TestValidSize(t *testing.T) {
	is := is.New(t)
	is.True(ValidSize(DefaultSize))
	is.True(ValidSize(MaxSize))
	is.True(ValidSize(64))
	is.True(!ValidSize(32))
	is.True(!ValidSize(1000))
	is.True(!ValidSize(2 * MaxSize))
}
