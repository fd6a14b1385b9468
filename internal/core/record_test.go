package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	r := RecordOf("fio", "Петров", "phone", "1", "city")

	assert.Equal(t, []string{"fio", "phone", "city"}, r.Fields())
	assert.Equal(t, "Петров", r.Get("fio"))
	assert.Equal(t, "", r.Get("missing"))
	_, ok := r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, r.Len())

	r.Set("fio", "Сидоров")
	assert.Equal(t, []string{"fio", "phone", "city"}, r.Fields(), "overwrite keeps position")
	assert.Equal(t, "Сидоров", r.Get("fio"))

	fields := r.Fields()
	fields[0] = "changed"
	assert.Equal(t, "fio", r.Fields()[0])

	assert.Equal(t, map[string]string{"fio": "Сидоров", "phone": "1", "city": ""}, r.Map())
}

func TestRecord_ZeroValue(t *testing.T) {
	var r Record
	assert.Equal(t, "", r.Get("x"))
	assert.True(t, r.IsBlank())

	r.Set("x", "  ")
	assert.True(t, r.IsBlank())
	r.Set("y", "v")
	assert.False(t, r.IsBlank())
}

func TestRecord_MarshalJSONKeepsOrder(t *testing.T) {
	r := RecordOf("z", "1", "a", "x \"y\"", "m", "")

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":"x \"y\"","m":""}`, string(data))

	var back map[string]string
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.Map(), back)

	data, err = json.Marshal(NewRecord(0))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}
