package domain

// ChatMessage is an already persisted chat event as handed to the relay.
type ChatMessage struct {
	ID         string  `json:"id"`
	SenderID   UserID  `json:"senderId"`
	SenderName string  `json:"senderName"`
	ReceiverID UserID  `json:"receiverId,omitempty"`
	GroupID    GroupID `json:"groupId,omitempty"`
	Content    string  `json:"content"`
	Timestamp  int64   `json:"timestamp"`
	FileURL    string  `json:"fileUrl,omitempty"`
	FileName   string  `json:"fileName,omitempty"`
	BlobName   string  `json:"blobName,omitempty"`
}

// From stamps the authenticated sender over whatever the client claimed.
func (m ChatMessage) From(sender Identity) ChatMessage {
	m.SenderID = sender.ID
	m.SenderName = sender.Name
	return m
}
