package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpio-scope/internal/gpio"
)

func TestNewPinSet(t *testing.T) {
	set, err := NewPinSet("539", " 540 ")
	require.NoError(t, err)
	assert.Equal(t, PinSet{"539", "540"}, set)
}

func TestNewPinSetRejects(t *testing.T) {
	_, err := NewPinSet()
	assert.True(t, errors.Is(err, ErrNoPins))

	_, err = NewPinSet("539", "539")
	assert.True(t, errors.Is(err, ErrDuplicatePin))

	_, err = NewPinSet("GPIO17")
	assert.True(t, errors.Is(err, gpio.ErrInvalidPinName))
}

func TestPinSetParse(t *testing.T) {
	set := PinSet{"539", "540"}

	pin, err := set.Parse("539\n")
	require.NoError(t, err)
	assert.Equal(t, gpio.Pin("539"), pin)

	_, err = set.Parse("541")
	assert.True(t, errors.Is(err, ErrInvalidPin))
}

func TestPinSetFormatting(t *testing.T) {
	assert.Equal(t, "539/540", PinSet{"539", "540"}.Choices())
	assert.Equal(t, "539 or 540", PinSet{"539", "540"}.Alternatives())
	assert.Equal(t, "538, 539 or 540", PinSet{"538", "539", "540"}.Alternatives())
	assert.Equal(t, "538", PinSet{"538"}.Alternatives())
}
