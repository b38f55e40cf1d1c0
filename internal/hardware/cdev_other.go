//go:build !linux

package hardware

import "context"

// DefaultChip is the GPIO character device used when no chip is configured.
const DefaultChip = "gpiochip0"

// CdevBank is unavailable outside Linux; Init always fails.
type CdevBank struct{}

func NewCdev(chip string) *CdevBank { return &CdevBank{} }

func (b *CdevBank) Init(ctx context.Context) error {
	return ErrHardware("gpiocdev: character device GPIO requires linux")
}

func (b *CdevBank) Pin(name string) (Pin, error) {
	return nil, ErrHardware("gpiocdev: character device GPIO requires linux")
}

func (b *CdevBank) Close() error { return nil }

func (b *CdevBank) IsReal() bool { return true }

var _ Bank = (*CdevBank)(nil)
