package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingDefaultsThresholds(t *testing.T) {
	mp, exists := SettingDefaults["mp_threshold_percent"]
	assert.True(t, exists, "mp_threshold_percent must exist in defaults")
	assert.Equal(t, 3.0, mp)

	subMP, exists := SettingDefaults["sub_mp_threshold_percent"]
	assert.True(t, exists, "sub_mp_threshold_percent must exist in defaults")
	assert.Equal(t, 5.0, subMP)
}

func TestSettingDescriptionsCoverDefaults(t *testing.T) {
	for key := range SettingDefaults {
		desc, exists := SettingDescriptions[key]
		assert.True(t, exists, "every default key needs a description: %s", key)
		assert.NotEmpty(t, desc)
	}
}
