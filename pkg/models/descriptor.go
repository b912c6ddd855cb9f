package models

import "sort"

// DataShapeKind identifies how a data shape is specified
type DataShapeKind string

// Data shape kinds understood by the mapper
const (
	DataShapeAny                DataShapeKind = "any"
	DataShapeJava               DataShapeKind = "java"
	DataShapeJSONSchema         DataShapeKind = "json-schema"
	DataShapeJSONInstance       DataShapeKind = "json-instance"
	DataShapeXMLSchema          DataShapeKind = "xml-schema"
	DataShapeXMLSchemaInspected DataShapeKind = "xml-schema-inspected"
	DataShapeXMLInstance        DataShapeKind = "xml-instance"
	DataShapeNone               DataShapeKind = "none"
)

// ActionDescriptor describes the data an action consumes and produces
type ActionDescriptor struct {
	InputDataShape          *DataShape             `json:"inputDataShape,omitempty" yaml:"inputDataShape,omitempty"`
	OutputDataShape         *DataShape             `json:"outputDataShape,omitempty" yaml:"outputDataShape,omitempty"`
	PropertyDefinitionSteps []ActionDescriptorStep `json:"propertyDefinitionSteps,omitempty" yaml:"propertyDefinitionSteps,omitempty"`
}

// DataShape describes a document flowing between steps
type DataShape struct {
	Kind          DataShapeKind `json:"kind" yaml:"kind"`
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Type          string        `json:"type,omitempty" yaml:"type,omitempty"`
	Specification string        `json:"specification,omitempty" yaml:"specification,omitempty"`
}

// ActionDescriptorStep is one page of an action's configuration form
type ActionDescriptorStep struct {
	Name        string                           `json:"name" yaml:"name"`
	Description string                           `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]ConfigurationProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// ConfigurationProperty defines a single form field
type ConfigurationProperty struct {
	DisplayName  string         `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Kind         string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Type         string         `json:"type,omitempty" yaml:"type,omitempty"`
	JavaType     string         `json:"javaType,omitempty" yaml:"javaType,omitempty"`
	Required     bool           `json:"required,omitempty" yaml:"required,omitempty"`
	Secret       bool           `json:"secret,omitempty" yaml:"secret,omitempty"`
	DefaultValue string         `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Enum         []PropertyEnum `json:"enum,omitempty" yaml:"enum,omitempty"`
	Order        int            `json:"order,omitempty" yaml:"order,omitempty"`
}

// PropertyEnum is an allowed value of a property
type PropertyEnum struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// AllowsValue reports whether value is acceptable for an enumerated property
func (p ConfigurationProperty) AllowsValue(value string) bool {
	if len(p.Enum) == 0 {
		return true
	}
	for _, e := range p.Enum {
		if e.Value == value {
			return true
		}
	}
	return false
}

// PropertyNames returns the step's property names sorted by order, then name
func (s ActionDescriptorStep) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.Properties[names[i]], s.Properties[names[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return names[i] < names[j]
	})
	return names
}

// Clone returns a deep copy of the descriptor
func (d ActionDescriptor) Clone() ActionDescriptor {
	out := d
	if d.InputDataShape != nil {
		s := *d.InputDataShape
		out.InputDataShape = &s
	}
	if d.OutputDataShape != nil {
		s := *d.OutputDataShape
		out.OutputDataShape = &s
	}
	if d.PropertyDefinitionSteps != nil {
		out.PropertyDefinitionSteps = make([]ActionDescriptorStep, len(d.PropertyDefinitionSteps))
		for n, step := range d.PropertyDefinitionSteps {
			cp := step
			if step.Properties != nil {
				cp.Properties = make(map[string]ConfigurationProperty, len(step.Properties))
				for k, v := range step.Properties {
					if v.Enum != nil {
						v.Enum = append([]PropertyEnum{}, v.Enum...)
					}
					cp.Properties[k] = v
				}
			}
			out.PropertyDefinitionSteps[n] = cp
		}
	}
	return out
}
