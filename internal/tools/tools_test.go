package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5, "USD"))
	assert.Equal(t, "-$10.00", FormatMoney(-10, "usd"))
	assert.Equal(t, "12.35 USDT", FormatMoney(12.345, "USDT"))
	assert.Equal(t, "7.00", FormatMoney(7, ""))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.35%", FormatPercent(12.345))
	assert.Equal(t, "-0.50%", FormatPercent(-0.5))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "10", FormatQuantity(10))
	assert.Equal(t, "0.12345679", FormatQuantity(0.123456789))
	assert.Equal(t, "-2.5", FormatQuantity(-2.5))
}
