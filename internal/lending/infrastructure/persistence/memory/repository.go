// Package memory 贷款仓储内存实现，默认的系统记录存储
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/exenlending/internal/lending/domain"
)

// LoanRepository 基于内存 map 的贷款仓储
type LoanRepository struct {
	mu    sync.RWMutex
	loans map[string]*domain.LoanAccount
}

// NewLoanRepository 创建内存贷款仓储
func NewLoanRepository() *LoanRepository {
	return &LoanRepository{
		loans: make(map[string]*domain.LoanAccount),
	}
}

// Save 新增或覆盖贷款账户
func (r *LoanRepository) Save(_ context.Context, loan *domain.LoanAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[loan.LoanID] = loan
	return nil
}

// FindByID 按 ID 查找贷款账户
func (r *LoanRepository) FindByID(_ context.Context, loanID string) (*domain.LoanAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loan, ok := r.loans[loanID]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

// List 返回全部贷款账户
func (r *LoanRepository) List(_ context.Context) ([]*domain.LoanAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.LoanAccount, 0, len(r.loans))
	for _, loan := range r.loans {
		out = append(out, loan)
	}
	return out, nil
}
