package events

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sephra1/lisk-sdk/types"
)

func testBlock(id string, height uint64) *types.Block {
	return &types.Block{ID: id, Height: height, Reward: uint256.NewInt(0)}
}

func TestPublishReachesTopicSubscribers(t *testing.T) {
	bus := NewBus()

	_, newBlockCh := bus.Subscribe(TopicNewBlock)
	_, broadcastCh := bus.Subscribe(TopicBroadcastBlock)

	bus.Publish(NewNewBlock(testBlock("block-1", 5)))

	select {
	case ev := <-newBlockCh:
		nb, ok := ev.(*NewBlock)
		require.True(t, ok)
		assert.Equal(t, "block-1", nb.Block().ID)
	default:
		t.Fatal("expected the newBlock subscriber to receive the event")
	}

	select {
	case <-broadcastCh:
		t.Fatal("broadcastBlock subscriber must not see newBlock events")
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()

	id, ch := bus.Subscribe(TopicNewBlock)
	require.True(t, bus.HasSubscriber(id))

	require.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.HasSubscriber(id))
	assert.Equal(t, 0, bus.GetTotalSubscriptions())

	_, open := <-ch
	assert.False(t, open)

	assert.False(t, bus.Unsubscribe(id))
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus()

	_, ch := bus.Subscribe(TopicNewBlock)

	// overflow the buffer; the publisher must not stall
	for i := 0; i < 100; i++ {
		bus.Publish(NewNewBlock(testBlock("block", uint64(i))))
	}

	assert.Equal(t, 50, len(ch))
}

func TestTransactionsSavedEvent(t *testing.T) {
	bus := NewBus()
	_, ch := bus.Subscribe(TopicTransactionsSaved)

	txs := []*types.Transaction{{ID: "tx-1"}, {ID: "tx-2"}}
	bus.Publish(NewTransactionsSaved(txs))

	select {
	case ev := <-ch:
		saved, ok := ev.(*TransactionsSaved)
		require.True(t, ok)
		assert.Len(t, saved.Transactions(), 2)
	default:
		t.Fatal("expected a transactionsSaved event")
	}
}

func TestBroadcastBlockEventCarriesFlag(t *testing.T) {
	bus := NewBus()
	_, ch := bus.Subscribe(TopicBroadcastBlock)

	bus.Publish(NewBroadcastBlock(testBlock("block-3", 3).Reduced(), false))

	ev := <-ch
	bb, ok := ev.(*BroadcastBlock)
	require.True(t, ok)
	assert.Equal(t, "block-3", bb.Block().ID)
	assert.False(t, bb.Broadcast())
}
