package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeduper_Seen(t *testing.T) {
	req := require.New(t)
	d := NewDeduper(16, time.Minute)

	req.False(d.Seen("private_message/m1"))
	req.True(d.Seen("private_message/m1"))
	req.False(d.Seen("group_message/m1"))
}

func TestDeduper_WindowExpires(t *testing.T) {
	req := require.New(t)
	d := NewDeduper(16, 20*time.Millisecond)

	req.False(d.Seen("k"))
	time.Sleep(40 * time.Millisecond)
	req.False(d.Seen("k"))
}

func TestDeduper_Nil(t *testing.T) {
	var d *Deduper
	require.False(t, d.Seen("k"))
	require.False(t, d.Seen("k"))
}
