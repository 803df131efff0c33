package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode_Key(t *testing.T) {
	t.Parallel()

	single := Node{Service: "php-base", Version: "v8.2.1"}
	assert.Equal(t, "php-base:v8.2.1", single.Key())

	multi := Node{Service: "nextcloud", Version: "v29.0.0", Platform: "alpine"}
	assert.Equal(t, "nextcloud:v29.0.0:alpine", multi.Key())
}

func TestNode_Tag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v8.2.1", Node{Service: "php-base", Version: "v8.2.1"}.Tag())
	assert.Equal(t, "v29.0.0-alpine", Node{Service: "nextcloud", Version: "v29.0.0", Platform: "alpine"}.Tag())
}

func TestNode_StructuralEquality(t *testing.T) {
	t.Parallel()

	a := Node{Service: "s", Version: "v1", Platform: "alpine"}
	b := Node{Service: "s", Version: "v1", Platform: "alpine"}
	c := Node{Service: "s", Version: "v1"}

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "platform is part of the identity")
}
