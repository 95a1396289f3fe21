package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/racedash/go/internal/models"
)

func TestMarshalExportIsIndented(t *testing.T) {
	data, err := MarshalExport(models.Drivers{
		"k1": {Name: "Senna", Team: "McLaren", Car: "MP4/4", CreatedAt: 10},
	})
	require.NoError(t, err)

	want := "{\n" +
		"  \"k1\": {\n" +
		"    \"name\": \"Senna\",\n" +
		"    \"team\": \"McLaren\",\n" +
		"    \"car\": \"MP4/4\",\n" +
		"    \"createdAt\": 10\n" +
		"  }\n" +
		"}"
	assert.Equal(t, want, string(data))
}

func TestMarshalExportEmpty(t *testing.T) {
	data, err := MarshalExport(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	drivers, err := UnmarshalExport(data)
	require.NoError(t, err)
	assert.Empty(t, drivers)
}
