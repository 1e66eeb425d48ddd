package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/germanamz/mcpmux/pkg/tools/validator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller records calls and replies with a fixed result.
type fakeCaller struct {
	result *mcp.CallToolResult
	err    error
	calls  int
	args   map[string]any
}

func (f *fakeCaller) Name() string { return "fake" }

func (f *fakeCaller) CallTool(_ context.Context, _ string, args map[string]any) (*mcp.CallToolResult, error) {
	f.calls++
	f.args = args
	return f.result, f.err
}

func textResult(isError bool, parts ...string) *mcp.CallToolResult {
	r := &mcp.CallToolResult{IsError: isError}
	for _, p := range parts {
		r.Content = append(r.Content, &mcp.TextContent{Text: p})
	}
	return r
}

var listDirectory = &mcp.Tool{
	Name:        "list_directory",
	Description: "List the contents of a directory",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
		},
		"required": []any{"path"},
	},
}

func TestSchemaAdapt(t *testing.T) {
	out, err := Schema{}.Adapt(Binding{Tool: listDirectory})
	require.NoError(t, err)

	got, err := json.Marshal(out)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "function",
		"function": {
			"name": "list_directory",
			"description": "List the contents of a directory",
			"parameters": {
				"type": "object",
				"properties": {"path": {"type": "string"}},
				"required": ["path"]
			}
		}
	}`, string(got))
}

func TestAdaptAllPreservesOrder(t *testing.T) {
	bindings := []Binding{
		{Tool: &mcp.Tool{Name: "b"}},
		{Tool: &mcp.Tool{Name: "a"}},
		{Tool: &mcp.Tool{Name: "b"}},
	}

	out, err := AdaptAll[FunctionSchema](Schema{}, bindings)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Function.Name)
	assert.Equal(t, "a", out[1].Function.Name)
	assert.Equal(t, "b", out[2].Function.Name)
}

func TestBindingCall_ValidatorShortCircuits(t *testing.T) {
	caller := &fakeCaller{result: textResult(false, "real")}
	reg := validator.New()
	reg.Register("list_directory", func(map[string]any) string { return "not allowed" })

	sub, res, err := Binding{Tool: listDirectory, Owner: caller, Validators: reg}.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "not allowed", sub)
	assert.Nil(t, res)
	assert.Zero(t, caller.calls)
}

func TestBindingCall_ValidatorProceeds(t *testing.T) {
	caller := &fakeCaller{result: textResult(false, "real")}
	reg := validator.New()
	reg.Register("list_directory", func(map[string]any) string { return "" })

	sub, res, err := Binding{Tool: listDirectory, Owner: caller, Validators: reg}.Call(context.Background(), map[string]any{"path": "/"})
	require.NoError(t, err)
	assert.Empty(t, sub)
	assert.Equal(t, caller.result, res)
	assert.Equal(t, 1, caller.calls)
	assert.Equal(t, map[string]any{"path": "/"}, caller.args)
}

func TestBindingCall_NoOwner(t *testing.T) {
	_, _, err := Binding{Tool: listDirectory}.Call(context.Background(), nil)
	assert.ErrorContains(t, err, "no owning session")
}

func TestBoundAdapt(t *testing.T) {
	caller := &fakeCaller{result: textResult(false, "[FILE] .localized")}

	tool, err := Bound{}.Adapt(Binding{Tool: listDirectory, Owner: caller})
	require.NoError(t, err)
	assert.Equal(t, "list_directory", tool.Name)
	assert.Equal(t, "List the contents of a directory", tool.Description)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tool.InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])

	out, err := tool.Handler(context.Background(), json.RawMessage(`{"path":"/Users"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"[FILE] .localized"}]}`, out)
	assert.Equal(t, map[string]any{"path": "/Users"}, caller.args)
}

func TestBoundHandler_ToolErrorBecomesText(t *testing.T) {
	caller := &fakeCaller{result: textResult(true, "permission ", "denied")}

	tool, err := Bound{}.Adapt(Binding{Tool: listDirectory, Owner: caller})
	require.NoError(t, err)

	out, err := tool.Handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "permission denied", out)
}

func TestBoundHandler_Validator(t *testing.T) {
	caller := &fakeCaller{}
	reg := validator.New()
	reg.Register("list_directory", func(args map[string]any) string {
		if args["path"] == "/secret" {
			return "ask the user first"
		}
		return ""
	})

	tool, err := Bound{}.Adapt(Binding{Tool: listDirectory, Owner: caller, Validators: reg})
	require.NoError(t, err)

	out, err := tool.Handler(context.Background(), json.RawMessage(`{"path":"/secret"}`))
	require.NoError(t, err)
	assert.Equal(t, "ask the user first", out)
	assert.Zero(t, caller.calls)
}

func TestBoundHandler_BadArguments(t *testing.T) {
	caller := &fakeCaller{}

	tool, err := Bound{}.Adapt(Binding{Tool: listDirectory, Owner: caller})
	require.NoError(t, err)

	_, err = tool.Handler(context.Background(), json.RawMessage(`{not json`))
	var ae *ArgumentsError
	assert.True(t, errors.As(err, &ae))
	assert.Zero(t, caller.calls)
}

func TestBoundHandler_TransportError(t *testing.T) {
	boom := errors.New("broken pipe")
	tool, err := Bound{}.Adapt(Binding{Tool: listDirectory, Owner: &fakeCaller{err: boom}})
	require.NoError(t, err)

	_, err = tool.Handler(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestConvertResult(t *testing.T) {
	image := &mcp.ImageContent{Data: []byte("png"), MIMEType: "image/png"}

	tests := []struct {
		name         string
		result       *mcp.CallToolResult
		wantContent  any
		wantArtifact []mcp.Content
	}{
		{
			name:        "single text collapses",
			result:      textResult(false, "only"),
			wantContent: "only",
		},
		{
			name:        "multiple text stays a list",
			result:      textResult(false, "a", "b"),
			wantContent: []string{"a", "b"},
		},
		{
			name:        "no content",
			result:      &mcp.CallToolResult{},
			wantContent: []string{},
		},
		{
			name: "non-text becomes artifact",
			result: &mcp.CallToolResult{Content: []mcp.Content{
				&mcp.TextContent{Text: "caption"},
				image,
			}},
			wantContent:  "caption",
			wantArtifact: []mcp.Content{image},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ConvertResult(tt.result)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, out.Content)
			assert.Equal(t, tt.wantArtifact, out.Artifact)
		})
	}
}

func TestConvertResult_Error(t *testing.T) {
	_, err := ConvertResult(textResult(true, "boom"))
	require.Error(t, err)

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "boom", te.Content)
	assert.EqualError(t, err, "boom")
}

func TestConvertResult_ErrorMultipleParts(t *testing.T) {
	_, err := ConvertResult(textResult(true, "a", "b"))

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, []string{"a", "b"}, te.Content)
	assert.EqualError(t, err, "a\nb")
}

func TestStructuredAdapt(t *testing.T) {
	caller := &fakeCaller{result: textResult(false, "a", "b")}

	tool, err := Structured{}.Adapt(Binding{Tool: listDirectory, Owner: caller})
	require.NoError(t, err)
	assert.Equal(t, "list_directory", tool.Name)
	assert.Equal(t, listDirectory.InputSchema, tool.ArgsSchema)

	out, err := tool.Invoke(context.Background(), map[string]any{"path": "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Content)
	assert.Nil(t, out.Artifact)
}

func TestStructuredInvoke_ValidatorShortCircuits(t *testing.T) {
	caller := &fakeCaller{}
	reg := validator.New()
	reg.Register("list_directory", func(map[string]any) string { return "denied" })

	tool, err := Structured{}.Adapt(Binding{Tool: listDirectory, Owner: caller, Validators: reg})
	require.NoError(t, err)

	out, err := tool.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "denied", out.Content)
	assert.Nil(t, out.Artifact)
	assert.Zero(t, caller.calls)
}

func TestStructuredInvoke_ToolError(t *testing.T) {
	caller := &fakeCaller{result: textResult(true, "boom")}

	tool, err := Structured{}.Adapt(Binding{Tool: listDirectory, Owner: caller})
	require.NoError(t, err)

	_, err = tool.Invoke(context.Background(), nil)
	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "boom", te.Content)
}

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{name: "nil", in: nil, want: map[string]any{}},
		{name: "map", in: map[string]any{"a": 1}, want: map[string]any{"a": 1}},
		{name: "json string", in: `{"path":"/Users"}`, want: map[string]any{"path": "/Users"}},
		{name: "empty string", in: "", want: map[string]any{}},
		{name: "raw message", in: json.RawMessage(`{"n":2}`), want: map[string]any{"n": 2.0}},
		{name: "bytes", in: []byte(`{"b":true}`), want: map[string]any{"b": true}},
		{name: "null", in: "null", want: map[string]any{}},
		{name: "struct", in: struct {
			Path string `json:"path"`
		}{Path: "/tmp"}, want: map[string]any{"path": "/tmp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArguments(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArguments_Errors(t *testing.T) {
	for _, in := range []any{`{"path":`, `[1,2]`, `"text"`, make(chan int)} {
		_, err := DecodeArguments(in)
		var ae *ArgumentsError
		assert.True(t, errors.As(err, &ae), "input %v", in)
	}
}
