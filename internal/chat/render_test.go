package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipechat/internal/models"
)

func TestProjectEmptyHistoryShowsHint(t *testing.T) {
	blocks := Project(Snapshot{})
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockHeader, blocks[0].Kind)
	assert.Equal(t, BlockHint, blocks[1].Kind)
	assert.Equal(t, EmptyHint, blocks[1].Content)
}

func TestProjectMessagesKeyedByPosition(t *testing.T) {
	blocks := Project(Snapshot{
		History: []models.Message{
			{Role: models.RoleUser, Content: "egg, onion"},
			{Role: models.RoleBot, Content: "Try a frittata!"},
		},
	})
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockHeader, blocks[0].Kind)
	for i, b := range blocks[1:] {
		assert.Equal(t, BlockMessage, b.Kind)
		assert.Equal(t, i, b.Key)
	}
	assert.Equal(t, models.RoleUser, blocks[1].Role)
	assert.Equal(t, models.RoleBot, blocks[2].Role)
}

func TestProjectThinkingIndicatorIsLast(t *testing.T) {
	blocks := Project(Snapshot{
		History:  []models.Message{{Role: models.RoleUser, Content: "rice"}},
		Awaiting: true,
	})
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockThinking, blocks[len(blocks)-1].Kind)
	assert.Equal(t, ThinkingText, blocks[len(blocks)-1].Content)
}
