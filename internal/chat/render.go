package chat

import "recipechat/internal/models"

const (
	HeaderTitle    = "🍳 Recipe Chatbot"
	HeaderSubtitle = "Tell me your ingredients, and I'll suggest recipes!"
	EmptyHint      = `👋 Hi! I'm your recipe assistant. Try entering ingredients like "egg, onion" or ask me anything!`
	ThinkingText   = "Thinking..."
	Placeholder    = "Enter ingredients or ask a question..."
)

// BlockKind tells the renderer how to style a block.
type BlockKind int

const (
	BlockHeader BlockKind = iota
	BlockHint
	BlockMessage
	BlockThinking
)

// Block is one rendered element of the chat view.
type Block struct {
	Kind BlockKind
	// Key is the history position for BlockMessage and -1 otherwise.
	Key     int
	Role    models.Role
	Title   string
	Content string
}

// Project maps a snapshot to the ordered blocks of the view. It has no side effects.
func Project(s Snapshot) []Block {
	blocks := make([]Block, 0, len(s.History)+3)
	blocks = append(blocks, Block{Kind: BlockHeader, Key: -1, Title: HeaderTitle, Content: HeaderSubtitle})
	if len(s.History) == 0 {
		blocks = append(blocks, Block{Kind: BlockHint, Key: -1, Role: models.RoleBot, Content: EmptyHint})
	}
	for i, msg := range s.History {
		blocks = append(blocks, Block{Kind: BlockMessage, Key: i, Role: msg.Role, Content: msg.Content})
	}
	if s.Awaiting {
		blocks = append(blocks, Block{Kind: BlockThinking, Key: -1, Role: models.RoleBot, Content: ThinkingText})
	}
	return blocks
}
