package preview

// Registry hands out short-lived resource URLs for in-memory bytes.
type Registry interface {
	Create(data []byte, mimeType string) string
	Revoke(url string)
}
