// Package memory 钱包账本内存仓储实现
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/exenlending/internal/wallet/domain"
)

type WalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

func (r *WalletRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[wallet.Address] = wallet
	return nil
}

func (r *WalletRepository) View(ctx context.Context, address string, fn func(*domain.Wallet) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[address]
	if !ok {
		return domain.ErrWalletNotFound
	}
	return fn(w)
}

func (r *WalletRepository) Mutate(ctx context.Context, address string, fn func(*domain.Wallet) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[address]
	if !ok {
		return domain.ErrWalletNotFound
	}
	return fn(w)
}
