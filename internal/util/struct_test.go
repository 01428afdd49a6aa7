package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github/chapool/go-airdrop/internal/util"
)

type components struct {
	Name    string
	Workers []int
	Skipped *int `wire:"-"`
	private int
}

func TestIsStructInitialized(t *testing.T) {
	assert.NoError(t, util.IsStructInitialized(&components{Name: "a", Workers: []int{}}))
	assert.EqualError(t, util.IsStructInitialized(components{Name: "a"}), "components.Workers is not initialized")
	assert.Error(t, util.IsStructInitialized((*components)(nil)))
	assert.Error(t, util.IsStructInitialized(42))
}
