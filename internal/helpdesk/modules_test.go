package helpdesk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestNormalizeModules_SequenceForm(t *testing.T) {
	raw := gjson.Parse(`[
		{"moduleId": 12, "moduleName": "Leave"},
		{"moduleId": "7", "moduleName": "Payroll"},
		{"moduleName": "No Id"},
		"not an object",
		{"moduleId": "9"}
	]`)

	got := NormalizeModules(raw)

	assert.Equal(t, []SourceModule{
		{ID: "12", Name: "Leave"},
		{ID: "7", Name: "Payroll"},
		{ID: "9", Name: UnknownModuleName},
	}, got)
}

func TestNormalizeModules_MappingForm(t *testing.T) {
	raw := gjson.Parse(`{
		"a": {"moduleId": "3", "module_name": "Attendance"},
		"44": {"module_name": "Library"},
		"b": 17,
		"c": {"moduleId": "5", "moduleName": "wrong key for this form"}
	}`)

	got := NormalizeModules(raw)

	assert.Equal(t, []SourceModule{
		{ID: "3", Name: "Attendance"},
		{ID: "44", Name: "Library"},
		{ID: "5", Name: UnknownModuleName},
	}, got)
}

func TestNormalizeModules_DeduplicatesByID(t *testing.T) {
	raw := gjson.Parse(`[
		{"moduleId": "1", "moduleName": "First"},
		{"moduleId": "1", "moduleName": "Second"}
	]`)

	got := NormalizeModules(raw)

	assert.Equal(t, []SourceModule{{ID: "1", Name: "First"}}, got)
}

func TestNormalizeModules_UnsupportedShape(t *testing.T) {
	assert.Nil(t, DetectModuleListShape(gjson.Parse(`"modules"`)))
	assert.Empty(t, NormalizeModules(gjson.Parse(`42`)))
	assert.Empty(t, NormalizeModules(gjson.Parse(`[]`)))
}
