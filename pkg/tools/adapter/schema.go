package adapter

// FunctionSchema is an OpenAI-style function tool declaration.
type FunctionSchema struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec is the function part of a FunctionSchema.
type FunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Schema adapts bindings into FunctionSchema values. The input schema is
// passed through untouched.
type Schema struct{}

// Adapt implements Adapter.
func (Schema) Adapt(b Binding) (FunctionSchema, error) {
	return FunctionSchema{
		Type: "function",
		Function: FunctionSpec{
			Name:        b.Tool.Name,
			Description: b.Tool.Description,
			Parameters:  b.Tool.InputSchema,
		},
	}, nil
}
