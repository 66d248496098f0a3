package banner

import (
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	prev := color.Enable
	color.Enable = false
	defer func() { color.Enable = prev }()

	b := Banner("v1.2.3")
	require.Contains(t, b, "v1.2.3")
	require.Contains(t, b, "page text classifier")
	require.Contains(t, b, `\__\___/_/\_\\__\___\__,_|\__|`)
}
