package core

// Response is the terminal result of a successful run: the messages produced
// since entry, the agent active when the run ended, and the merged context
// variables. The slices and maps are owned by the caller once returned.
type Response struct {
	Messages         []Message        `json:"messages"`
	Agent            *Agent           `json:"agent,omitempty"`
	ContextVariables ContextVariables `json:"context_variables"`
}
