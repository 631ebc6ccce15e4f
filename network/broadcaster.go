package network

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Sephra1/lisk-sdk/events"
	"github.com/Sephra1/lisk-sdk/exception"
	"github.com/Sephra1/lisk-sdk/logx"
	"github.com/Sephra1/lisk-sdk/types"
)

// Broadcaster relays reduced blocks to peers. It subscribes to the
// broadcastBlock topic and fans each event out to every configured peer
// concurrently; a slow or dead peer does not hold the others back.
type Broadcaster struct {
	client *resty.Client
	peers  []string
	bus    *events.Bus

	subID events.SubscriberID
	ch    chan events.ChainEvent
}

func NewBroadcaster(bus *events.Bus, peers []string, timeout time.Duration) *Broadcaster {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2)

	return &Broadcaster{
		client: client,
		peers:  peers,
		bus:    bus,
	}
}

// Start subscribes to broadcastBlock events and relays until the context is
// cancelled
func (b *Broadcaster) Start(ctx context.Context) {
	b.subID, b.ch = b.bus.Subscribe(events.TopicBroadcastBlock)

	exception.SafeGo("network.broadcaster", func() {
		for {
			select {
			case <-ctx.Done():
				b.bus.Unsubscribe(b.subID)
				return
			case ev, ok := <-b.ch:
				if !ok {
					return
				}
				bcast, isBroadcast := ev.(*events.BroadcastBlock)
				if !isBroadcast || !bcast.Broadcast() {
					continue
				}
				if err := b.relay(ctx, bcast.Block()); err != nil {
					logx.Warn("NETWORK", "Block relay incomplete: ", err.Error())
				}
			}
		}
	})
}

// relay posts the reduced block to every peer concurrently
func (b *Broadcaster) relay(ctx context.Context, block *types.ReducedBlock) error {
	if len(b.peers) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, peer := range b.peers {
		peer := peer
		g.Go(func() error {
			resp, err := b.client.R().
				SetContext(gctx).
				SetBody(block).
				Post(peer + "/peer/blocks")
			if err != nil {
				return fmt.Errorf("peer %s: %w", peer, err)
			}
			if resp.IsError() {
				return fmt.Errorf("peer %s responded %s", peer, resp.Status())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logx.Debug("NETWORK", fmt.Sprintf("Relayed block %s at height %d to %d peers", block.ID, block.Height, len(b.peers)))
	return nil
}
