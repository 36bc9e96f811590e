package llm

// ProviderSettings carries what a factory needs to build a client. The
// caller resolves API keys from the secrets layer first.
type ProviderSettings struct {
	Provider   string
	Model      string
	APIKey     string
	OllamaHost string
}
