package iocli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapStdin подменяет os.Stdin на pipe с заготовленным вводом
func swapStdin(t *testing.T, input string) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()

	old := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = old })
}

func TestStdio_ReadInput_TrimsWhitespace(t *testing.T) {
	swapStdin(t, "  alice_grace  \n")

	stdio := NewStdio()
	got, err := stdio.ReadInput("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice_grace", got)
}

// Два ввода подряд через общий reader: буферизация первого чтения
// не должна проглатывать второй
func TestStdio_ReadInput_Sequential(t *testing.T) {
	swapStdin(t, "my-journal\nshared\n")

	stdio := NewStdio()

	name, err := stdio.ReadInput("Space name: ")
	require.NoError(t, err)
	assert.Equal(t, "my-journal", name)

	kind, err := stdio.ReadInput("Kind: ")
	require.NoError(t, err)
	assert.Equal(t, "shared", kind)
}

// Вне tty ReadPassword деградирует до обычного чтения строки
func TestStdio_ReadPassword_WithoutTerminal(t *testing.T) {
	swapStdin(t, "gratitude-passphrase\n")

	stdio := NewStdio()
	pw, err := stdio.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "gratitude-passphrase", pw)
}

func TestStdio_PrintDoesNotPanic(t *testing.T) {
	stdio := NewStdio()

	assert.NotPanics(t, func() {
		stdio.Println("✓ Photo posted")
		stdio.Printf("[%s] %s\n", "alice_grace", "Спасибо за этот день")
		_, _ = stdio.Write([]byte("feed\n"))
	})
}
