package domain

import "github.com/shopspring/decimal"

// EscrowVault 抵押品托管金库，单实例。
// 不变式：TotalLocked 等于所有处于 locked 状态入金的美元价值之和
type EscrowVault struct {
	VaultID     string                        `json:"vault_id"`
	Location    string                        `json:"location"`
	TotalLocked decimal.Decimal               `json:"total_collateral_locked"`
	Deposits    map[string]*CollateralDeposit `json:"deposits"`
	Status      EscrowStatus                  `json:"status"`
}

// NewEscrowVault 创建空金库
func NewEscrowVault(vaultID string) *EscrowVault {
	return &EscrowVault{
		VaultID:     vaultID,
		Location:    "escrow_vault",
		TotalLocked: decimal.Zero,
		Deposits:    make(map[string]*CollateralDeposit),
		Status:      EscrowEmpty,
	}
}

// Lock 登记锁定入金并累加托管总额
func (v *EscrowVault) Lock(deposit *CollateralDeposit) {
	v.Deposits[deposit.DepositID] = deposit
	v.TotalLocked = v.TotalLocked.Add(deposit.CollateralValueUSD)
	v.Status = EscrowLocked
}

// Release 释放入金并扣减托管总额
func (v *EscrowVault) Release(depositID string) error {
	deposit, ok := v.Deposits[depositID]
	if !ok {
		return ErrDepositNotFound
	}
	if deposit.Status != EscrowLocked {
		return ErrInvalidLoanState
	}

	deposit.Status = EscrowReleased
	v.TotalLocked = v.TotalLocked.Sub(deposit.CollateralValueUSD)
	if v.ActiveDeposits() == 0 {
		v.Status = EscrowReleased
	}
	return nil
}

// BeginLiquidation 将锁定入金转入清算流程并扣减托管总额
func (v *EscrowVault) BeginLiquidation(depositID string) error {
	deposit, ok := v.Deposits[depositID]
	if !ok {
		return ErrDepositNotFound
	}
	if deposit.Status != EscrowLocked {
		return ErrInvalidLoanState
	}

	deposit.Status = EscrowLiquidationInProgress
	v.TotalLocked = v.TotalLocked.Sub(deposit.CollateralValueUSD)
	return nil
}

// ActiveDeposits 当前仍处于锁定状态的入金数
func (v *EscrowVault) ActiveDeposits() int {
	n := 0
	for _, d := range v.Deposits {
		if d.Status == EscrowLocked {
			n++
		}
	}
	return n
}
