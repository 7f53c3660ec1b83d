package toml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type details struct {
	Location string `fake:"Beijing"`
	Gender   string `fake:"male"`
}

type person struct {
	Name       string    `fake:"Syd Xu" validate:"required"`
	Age        *int      `fake:"24"`
	Details    *details  ``
	DetailList []details `fakesize:"1"`
}

func TestToml_FormatInstructions(t *testing.T) {
	enc := NewEncoder(person{})
	exp := `
Reply with one TOML document shaped like this example:
` + "```toml" + `
Name = "Syd Xu"
Age = 24

[Details]
  Location = "Beijing"
  Gender = "male"

[[DetailList]]
  Location = "Beijing"
  Gender = "male"
` + "```" + `
Use your own values, not the ones from the example.
`
	assert.Equal(t, exp, enc.GetFormatInstructions())
}

func TestToml_Unmarshal(t *testing.T) {
	enc := NewEncoder(person{})

	var p person
	err := enc.Unmarshal([]byte("```toml\nName = \"Ada\"\nAge = 36\n\n[[DetailList]]\nLocation = \"London\"\n```"), &p)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	require.NotNil(t, p.Age)
	assert.Equal(t, 36, *p.Age)
	require.Len(t, p.DetailList, 1)
	assert.Equal(t, "London", p.DetailList[0].Location)

	assert.NoError(t, enc.Validate(&p))
	assert.Error(t, enc.Validate(&person{}))
}
