package service

import "ubmqi/backend/internal/domain"

// Allocation ratios per the cooperative's bylaws, expressed in basis
// points of net profit.
const (
	jasaModalBPS     = 3000
	jasaTransaksiBPS = 2000
	pengurusBPS      = 1500
	infaqBPS         = 1000
)

// roundShare computes round(net * bps / 10000) with ties rounded away
// from zero, in pure integer arithmetic.
func roundShare(net int64, bps int64) int64 {
	product := net * bps
	if product >= 0 {
		return (product + 5000) / 10000
	}
	return (product - 5000) / 10000
}

// AllocateSHU splits a sale's net profit across the five pools. Four
// shares are rounded; cadanganModal takes the exact remainder so the
// five always sum to netProfit. Works for negative profit too.
func AllocateSHU(netProfit int64, memberID string) domain.SHUAllocation {
	alloc := domain.SHUAllocation{
		MemberID:      memberID,
		JasaModal:     roundShare(netProfit, jasaModalBPS),
		JasaTransaksi: roundShare(netProfit, jasaTransaksiBPS),
		Pengurus:      roundShare(netProfit, pengurusBPS),
		InfaqMQI:      roundShare(netProfit, infaqBPS),
	}
	alloc.CadanganModal = netProfit - alloc.JasaModal - alloc.JasaTransaksi - alloc.Pengurus - alloc.InfaqMQI
	return alloc
}

// operatingCost is the 20% share of gross profit retained for
// operations, rounded half away from zero.
func operatingCost(profit int64) int64 {
	return roundShare(profit, 2000)
}
