package external

type Oracle_Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Oracle_Request struct {
	Model          string           `json:"model"`
	Messages       []Oracle_Message `json:"messages"`
	Temperature    float64          `json:"temperature,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type Oracle_Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Oracle_Prediction is the structured guess the model is asked to return.
type Oracle_Prediction struct {
	Prediction string `json:"prediction"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
}
