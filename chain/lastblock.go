package chain

import (
	"sync"

	"github.com/Sephra1/lisk-sdk/types"
)

// lastBlockRegister is the single-slot cursor to the current chain tip.
// Last-writer-wins under the chain mutator's exclusion; everyone else reads.
type lastBlockRegister struct {
	mu    sync.RWMutex
	block *types.Block
}

func (r *lastBlockRegister) Get() *types.Block {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.block
}

func (r *lastBlockRegister) Set(block *types.Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = block
}
