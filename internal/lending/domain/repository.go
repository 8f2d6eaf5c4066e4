package domain

import "context"

// LoanRepository 贷款账户仓储。应用层在自身互斥区内调用，
// 实现只需保证单次调用的原子性
type LoanRepository interface {
	// Save 新增或覆盖贷款账户
	Save(ctx context.Context, loan *LoanAccount) error
	// FindByID 按 ID 查找，未找到返回 ErrLoanNotFound
	FindByID(ctx context.Context, loanID string) (*LoanAccount, error)
	// List 返回全部贷款账户
	List(ctx context.Context) ([]*LoanAccount, error)
}
