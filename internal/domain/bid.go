package domain

import "time"

// Bid — одна ставка участника в конкретном аукционе. Значение неизменяемо
// после создания.
type Bid struct {
	// AuctionID — обратная ссылка на аукцион, в котором сделана ставка.
	AuctionID uint64
	// Amount — размер ставки, строго больше нуля.
	Amount uint64
	// Bidder — идентификатор участника (непрозрачная строка).
	Bidder string
	// Timestamp фиксирует момент подачи ставки; участвует только в
	// tie-break при определении победителя и в аудите.
	Timestamp time.Time
}

// ValidateInvariants проверяет базовые инварианты ставки и возвращает список замечаний.
func (b *Bid) ValidateInvariants() []error {
	var errs []error

	if b.Bidder == "" {
		errs = append(errs, ErrBidderRequired)
	}
	if b.Amount == 0 {
		errs = append(errs, ErrBidAmountTooLow)
	}

	return errs
}

// Winner — результат аукциона: победитель и сумма к оплате по правилу
// второй цены.
type Winner struct {
	AuctionID uint64
	// Bidder — участник с наивысшей ставкой.
	Bidder string
	// AmountOwed — размер второй по величине ставки.
	AmountOwed uint64
}
