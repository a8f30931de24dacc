package presentation

const (
	AuthKey         = "Authorization"
	TypeKey         = "Content-Type"
	ConversationKey = "X-Conversation"
	RecipientKey    = "X-Recipient"
	FileNameKey     = "X-File-Name"
	ReasonTag       = "X-Reason"
	FileSizeKey     = "X-File-Size"
	IDParam         = "id"
	ConversationQ   = "conversation"
	BearerPrefix    = "Bearer "
)
