package gemini

import "github.com/ftthdiag/diagchat/models"

type generateResponse struct {
	Candidates    []candidate   `json:"candidates"`
	UsageMetadata usageMetadata `json:"usageMetadata"`
	ModelVersion  string        `json:"modelVersion"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type content struct {
	Role  string     `json:"role"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text             *string           `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	ID   string                 `json:"id,omitempty"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type functionResponse struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type requestBody struct {
	Contents          []content          `json:"contents"`
	Tools             []toolBlock        `json:"tools,omitempty"`
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
}

type systemInstruction struct {
	Parts []systemPart `json:"parts"`
}

type systemPart struct {
	Text string `json:"text"`
}

type toolBlock struct {
	FunctionDeclarations []wireDeclaration `json:"functionDeclarations"`
}

type wireDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  wireParameters `json:"parameters"`
}

type wireParameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required,omitempty"`
}

// toWireDeclarations converts declarations into the API's schema shape.
// Properties must be an object, never null, or the API rejects the call.
func toWireDeclarations(fds []models.FunctionDeclaration) []wireDeclaration {
	out := make([]wireDeclaration, len(fds))
	for i, fd := range fds {
		params := wireParameters{
			Type:       fd.Parameters.Type,
			Properties: fd.Parameters.Properties,
			Required:   fd.Parameters.Required,
		}
		if params.Type == "" {
			params.Type = "object"
		}
		if params.Properties == nil {
			params.Properties = make(map[string]interface{})
		}
		out[i] = wireDeclaration{Name: fd.Name, Description: fd.Description, Parameters: params}
	}
	return out
}
