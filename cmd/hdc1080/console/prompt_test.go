package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchConstraint(t *testing.T) {
	constraints := []string{No, Yes}
	assert.Equal(t, No, matchConstraint("", constraints))
	assert.Equal(t, Yes, matchConstraint(" Y ", constraints))
	assert.Equal(t, No, matchConstraint("maybe", constraints))
	assert.Equal(t, No, matchConstraint("N", constraints))
}
