package helpdesk

import (
	"github.com/tidwall/gjson"
)

// UnknownModuleName is used when a listing entry carries no usable name.
const UnknownModuleName = "Unknown Module"

// SourceModule is one ERP module as advertised by the module listing.
type SourceModule struct {
	ID   string `json:"moduleId"`
	Name string `json:"moduleName"`
}

// ModuleListShape is one of the two layouts the module listing arrives in.
type ModuleListShape interface {
	normalize() []SourceModule
}

// SequenceForm is a JSON array of module objects keyed moduleId/moduleName.
type SequenceForm struct {
	Items []gjson.Result
}

// MappingForm is a JSON object whose values are module objects keyed
// moduleId/module_name. Keys are kept because they are usually the id.
type MappingForm struct {
	Keys  []string
	Items []gjson.Result
}

// DetectModuleListShape classifies a raw listing. It returns nil when the
// value is neither an array nor an object.
func DetectModuleListShape(raw gjson.Result) ModuleListShape {
	switch {
	case raw.IsArray():
		return SequenceForm{Items: raw.Array()}
	case raw.IsObject():
		var m MappingForm
		raw.ForEach(func(key, value gjson.Result) bool {
			m.Keys = append(m.Keys, key.String())
			m.Items = append(m.Items, value)
			return true
		})
		return m
	default:
		return nil
	}
}

func (s SequenceForm) normalize() []SourceModule {
	var out []SourceModule
	for _, item := range s.Items {
		if !item.IsObject() {
			continue
		}
		id := scalarString(item.Get("moduleId"))
		if id == "" {
			continue
		}
		out = append(out, SourceModule{ID: id, Name: nameOrUnknown(item.Get("moduleName"))})
	}
	return out
}

func (m MappingForm) normalize() []SourceModule {
	var out []SourceModule
	for i, item := range m.Items {
		if !item.IsObject() {
			continue
		}
		id := scalarString(item.Get("moduleId"))
		if id == "" {
			id = m.Keys[i]
		}
		if id == "" {
			continue
		}
		out = append(out, SourceModule{ID: id, Name: nameOrUnknown(item.Get("module_name"))})
	}
	return out
}

// NormalizeModules converts any listing shape to canonical modules, keeping
// the first entry for each id.
func NormalizeModules(raw gjson.Result) []SourceModule {
	shape := DetectModuleListShape(raw)
	if shape == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var modules []SourceModule
	for _, m := range shape.normalize() {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		modules = append(modules, m)
	}
	return modules
}

// scalarString renders string and number ids alike; anything else is absent.
func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

func nameOrUnknown(v gjson.Result) string {
	if v.Type == gjson.String && v.Str != "" {
		return v.Str
	}
	return UnknownModuleName
}
