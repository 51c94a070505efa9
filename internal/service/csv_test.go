package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "0.00", formatPrice(0))
	require.Equal(t, "0.05", formatPrice(5))
	require.Equal(t, "450.99", formatPrice(45099))
	require.Equal(t, "-450.99", formatPrice(-45099))
	require.Equal(t, "-0.05", formatPrice(-5))
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "Alps-Trip", sanitizeFilename("Alps Trip"))
	require.Equal(t, "gear_2026", sanitizeFilename("gear_2026!?"))
	require.Equal(t, "list", sanitizeFilename("///"))
}
