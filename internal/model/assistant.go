package model

// AssistantResponse is the body returned for an assistant request.
type AssistantResponse struct {
	Assistant *Assistant `json:"assistant,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Assistant describes how the provider should answer an inbound call.
type Assistant struct {
	Name         string            `json:"name"`
	FirstMessage string            `json:"firstMessage"`
	Model        AssistantModel    `json:"model"`
	Voice        AssistantVoice    `json:"voice"`
	ServerURL    string            `json:"serverUrl,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// AssistantModel is the language model configuration of an assistant.
type AssistantModel struct {
	Provider string             `json:"provider"`
	Model    string             `json:"model"`
	Messages []AssistantMessage `json:"messages"`
	Tools    []ToolDefinition   `json:"tools"`
}

// AssistantMessage is a prompt message.
type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantVoice selects the text-to-speech voice.
type AssistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the JSON-schema description of a tool.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}
