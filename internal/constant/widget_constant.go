package constant

const (
	// DefaultWelcomeMessage is sent when the bot's system prompt does not
	// provide its own greeting line.
	DefaultWelcomeMessage = "Hello! I'm Aidly. How can I help you today?"

	DefaultBotSystemPrompt = "You are a helpful and friendly AI assistant. Provide clear, concise, and accurate answers to user questions."

	DefaultBotDescription       = "Auto-generated chatbot for widget embedding"
	DefaultWorkspaceDescription = "Auto-generated workspace for chatbot"

	// SessionTokenPrefix marks opaque session handles so they are never
	// confused with signed tokens in logs or clients.
	SessionTokenPrefix = "sess_"

	MaxChatMessageLength = 1000
)
