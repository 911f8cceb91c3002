package main

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/notify"
)

func TestSendSleepDefaultMatchesDispatcher(t *testing.T) {
	flag := newSendCmd().Flags().Lookup("sleep")
	require.NotNil(t, flag)
	assert.Equal(t, strconv.Itoa(int(notify.DefaultSleep.Seconds())), flag.DefValue)
}

func TestRootCommandWiresSubcommands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"badges", "archives", "send"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
