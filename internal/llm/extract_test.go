package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjectFromFence(t *testing.T) {
	content := "Here you go:\n```json\n{\"kcal\": 250}\n```\nEnjoy {not this}"
	raw, err := ExtractObject(content)
	require.NoError(t, err)
	assert.Equal(t, `{"kcal": 250}`, raw)
}

func TestExtractObjectFromProse(t *testing.T) {
	raw, err := ExtractObject(`Sure! {"a": {"b": 1}} hope that helps`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, raw)

	_, err = ExtractObject("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeMalformed(t *testing.T) {
	var v map[string]any
	err := Decode(`{"foods": [}`, &v)
	assert.Error(t, err)
}

func TestNumberAcceptsStrings(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, Decode(`{"a": 2100, "b": "1850", "c": "2100 kcal", "d": null}`, &v))
	assert.Equal(t, 2100, v.A.Int())
	assert.Equal(t, 1850, v.B.Int())
	assert.Equal(t, 2100, v.C.Int())
	assert.Equal(t, 0, v.D.Int())

	var bad struct {
		A Number `json:"a"`
	}
	assert.Error(t, Decode(`{"a": "lots"}`, &bad))
}

func TestStringsAcceptsSingleValue(t *testing.T) {
	var v struct {
		Foods Strings `json:"foods"`
		Tips  Strings `json:"tips"`
	}
	require.NoError(t, Decode(`{"foods": ["rice", "beans"], "tips": "drink water"}`, &v))
	assert.Equal(t, Strings{"rice", "beans"}, v.Foods)
	assert.Equal(t, Strings{"drink water"}, v.Tips)
}
