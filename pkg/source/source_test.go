package source

import (
	"testing"

	"github.com/punktf/punktf/pkg/span"
	"github.com/stretchr/testify/assert"
)

func TestLocationLines(t *testing.T) {
	content := "Hello\nWorld\nFoo\nBar"

	src := Anonymous(content)

	assert.Equal(t, Location{Line: 1, Column: 0}, src.GetPosLocation(span.BytePos(0)))
	assert.Equal(t, Location{Line: 2, Column: 0}, src.GetPosLocation(span.BytePos(6)))
}

func TestLocationSpecial(t *testing.T) {
	content := "\tA\r\n\t\tHello"

	src := Anonymous(content)

	assert.Equal(t, Location{Line: 1, Column: 4}, src.GetPosLocation(span.BytePos(1)))
	assert.Equal(t, Location{Line: 2, Column: 8}, src.GetPosLocation(span.BytePos(6)))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "3:5", Location{Line: 3, Column: 4}.Display())
}

func TestGetIdxLine(t *testing.T) {
	src := Anonymous("one\ntwo\nthree")

	assert.Equal(t, "one", src.GetIdxLine(0))
	assert.Equal(t, "two", src.GetIdxLine(1))
	assert.Equal(t, "three", src.GetIdxLine(2))
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "anonymous", AnonymousOrigin().String())
	assert.Equal(t, "/tmp/profile.yaml", FileOrigin("/tmp/profile.yaml").String())
}
