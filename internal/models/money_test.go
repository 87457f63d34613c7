package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"75.00", 7500},
		{"75", 7500},
		{"75.5", 7550},
		{"0.01", 1},
		{"0", 0},
		{"-12.34", -1234},
		{" 10.00 ", 1000},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseMoneyRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "12.345", "abc", "1.2.3"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "75.00", Money(7500).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, cents := range []Money{0, 1, 99, 100, 7550, -1234} {
		parsed, err := ParseMoney(cents.String())
		require.NoError(t, err)
		assert.Equal(t, cents, parsed)
	}
}

func TestWithinOneCent(t *testing.T) {
	assert.True(t, Money(7500).WithinOneCent(7500))
	assert.True(t, Money(7500).WithinOneCent(7501))
	assert.True(t, Money(7501).WithinOneCent(7500))
	assert.False(t, Money(7500).WithinOneCent(7502))
}

func TestMoneyJSON(t *testing.T) {
	out, err := json.Marshal(Money(7500))
	require.NoError(t, err)
	assert.Equal(t, `"75.00"`, string(out))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"75.00"`), &m))
	assert.Equal(t, Money(7500), m)

	// Bare numbers are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`75.00`), &m))
	assert.Equal(t, Money(7500), m)
}
